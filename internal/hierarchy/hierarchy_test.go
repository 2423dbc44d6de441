package hierarchy

import "testing"

func TestRelationshipDuplicate(t *testing.T) {
	if got := Relationship("/media/a", "/media/a/"); got != RelationDuplicate {
		t.Errorf("got %s, want duplicate", got)
	}
}

func TestRelationshipParentChildSymmetric(t *testing.T) {
	a, b := "/media/a", "/media/a/sub"
	if got := Relationship(a, b); got != RelationParent {
		t.Errorf("Relationship(a,b) = %s, want parent", got)
	}
	if got := Relationship(b, a); got != RelationChild {
		t.Errorf("Relationship(b,a) = %s, want child", got)
	}
}

func TestRelationshipNone(t *testing.T) {
	if got := Relationship("/media/a", "/media/b"); got != RelationNone {
		t.Errorf("got %s, want none", got)
	}
}

func TestRelationshipDoesNotConfusePrefixSiblings(t *testing.T) {
	// "/media/ab" must not be considered a child of "/media/a".
	if got := Relationship("/media/a", "/media/ab"); got != RelationNone {
		t.Errorf("got %s, want none", got)
	}
}

func TestPlanAddBookmark(t *testing.T) {
	plan := PlanAdd("/media/a/sub", []string{"/media/a"})
	if !plan.IsBookmark || plan.ParentPath != "/media/a" {
		t.Errorf("expected bookmark of /media/a, got %+v", plan)
	}
}

func TestPlanAddSubsumes(t *testing.T) {
	plan := PlanAdd("/media/a", []string{"/media/a/sub1", "/media/a/sub2", "/media/other"})
	if len(plan.Subsumes) != 2 {
		t.Errorf("expected 2 subsumed roots, got %+v", plan.Subsumes)
	}
}

func TestPlanAddDuplicate(t *testing.T) {
	plan := PlanAdd("/media/a", []string{"/media/a"})
	if !plan.Duplicate {
		t.Error("expected duplicate flag")
	}
}
