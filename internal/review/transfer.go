package review

import (
	"context"

	"github.com/nissyi-gh/bucket/internal/transfer"
)

// ImportFailure describes a record the store refused.
type ImportFailure struct {
	Index int
	Title string
	Err   error
}

// ImportResult reports the outcome of Import.
type ImportResult struct {
	IDs    []int
	Failed []ImportFailure
}

// Import adds every task in the document as a new task. The document is
// parsed in full first; if it is malformed nothing is written. Records
// the store rejects afterwards are reported in Failed and the rest are
// still inserted.
func (m *Manager) Import(ctx context.Context, data []byte, f transfer.Format) (ImportResult, error) {
	tasks, err := transfer.Decode(data, f, m.now())
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	for i, t := range tasks {
		id, err := m.store.Add(ctx, t)
		if err != nil {
			m.log.Warn("import record failed", "index", i, "title", t.Title, "err", err)
			res.Failed = append(res.Failed, ImportFailure{Index: i, Title: t.Title, Err: err})
			continue
		}
		res.IDs = append(res.IDs, id)
	}
	m.log.Info("import finished", "imported", len(res.IDs), "failed", len(res.Failed))
	return res, m.sync(ctx)
}

// Export serializes the full task set from the last derived Views.
func (m *Manager) Export(f transfer.Format) ([]byte, error) {
	return transfer.Encode(m.Views().All, f)
}
