package model

import "testing"

func TestPatchApply(t *testing.T) {
	orig := Task{ID: 7, Title: "old", Scheduled: true}
	got := Patch{Title: Ptr("new"), Scheduled: Ptr(false)}.Apply(orig)
	if got.ID != 7 || got.Title != "new" || got.Scheduled {
		t.Errorf("Apply = %+v", got)
	}
	if !(Patch{}).IsEmpty() {
		t.Error("empty patch IsEmpty = false")
	}
}
