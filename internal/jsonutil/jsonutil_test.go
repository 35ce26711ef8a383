package jsonutil

import (
	"testing"

	"github.com/wisbric/mindconnect-agent/internal/mclerror"
)

func TestBuildObjectAndToString(t *testing.T) {
	obj := Initialize(KindObject)
	if err := obj.AddString("client_id", "C"); err != nil {
		t.Fatalf("AddString() error: %v", err)
	}
	if err := obj.AddUint("size", 42); err != nil {
		t.Fatalf("AddUint() error: %v", err)
	}

	arr, err := obj.StartArray("paths")
	if err != nil {
		t.Fatalf("StartArray() error: %v", err)
	}
	item := Initialize(KindObject)
	if err := item.AddString("path", "C/foo"); err != nil {
		t.Fatalf("AddString() error: %v", err)
	}
	if err := arr.AddItemToArray(item); err != nil {
		t.Fatalf("AddItemToArray() error: %v", err)
	}

	got := obj.ToString()
	parsed, err := Parse([]byte(got))
	if err != nil {
		t.Fatalf("Parse() of own output error: %v", err)
	}
	if parsed.Kind() != KindObject {
		t.Fatalf("Kind() = %v, want KindObject", parsed.Kind())
	}
}

func TestAddDuplicateKeyFails(t *testing.T) {
	obj := Initialize(KindObject)
	if err := obj.AddString("client_id", "C"); err != nil {
		t.Fatalf("first AddString() error: %v", err)
	}
	err := obj.AddString("client_id", "D")
	if err == nil {
		t.Fatal("expected JsonNameDuplication on second add")
	}
	mclErr, ok := err.(*mclerror.Error)
	if !ok || mclErr.Kind != mclerror.JsonNameDuplication {
		t.Fatalf("got %v, want JsonNameDuplication", err)
	}
}

func TestGetNumberFromStringIsTypeMismatch(t *testing.T) {
	obj := Initialize(KindObject)
	_ = obj.AddString("name", "agent-001")
	v, ok := obj.GetObjectItem("name")
	if !ok {
		t.Fatal("expected to find member 'name'")
	}
	_, err := v.GetNumber()
	if err == nil {
		t.Fatal("expected JsonTypeMismatch")
	}
	mclErr, ok := err.(*mclerror.Error)
	if !ok || mclErr.Kind != mclerror.JsonTypeMismatch {
		t.Fatalf("got %v, want JsonTypeMismatch", err)
	}
}

func TestGetArrayItemOutOfRangeIsInvalidParameter(t *testing.T) {
	arr := Initialize(KindArray)
	_ = arr.AddItemToArray(NewString("only-item"))

	for _, idx := range []int{-1, 1, 100} {
		_, err := arr.GetArrayItem(idx)
		if err == nil {
			t.Fatalf("index %d: expected InvalidParameter", idx)
		}
		mclErr, ok := err.(*mclerror.Error)
		if !ok || mclErr.Kind != mclerror.InvalidParameter {
			t.Fatalf("index %d: got %v, want InvalidParameter", idx, err)
		}
	}

	v, err := arr.GetArrayItem(0)
	if err != nil {
		t.Fatalf("GetArrayItem(0) error: %v", err)
	}
	s, err := v.GetString()
	if err != nil || s != "only-item" {
		t.Fatalf("GetString() = (%q, %v), want (only-item, nil)", s, err)
	}
}

func TestParseRoundTripsStructuralEquality(t *testing.T) {
	obj := Initialize(KindObject)
	_ = obj.AddString("a", "1")
	_ = obj.AddBool("b", true)
	_ = obj.AddDouble("c", 3.5)

	roundTripped, err := Parse([]byte(obj.ToString()))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	av, _ := roundTripped.GetObjectItem("a")
	s, _ := av.GetString()
	if s != "1" {
		t.Errorf("a = %q, want 1", s)
	}

	bv, _ := roundTripped.GetObjectItem("b")
	b, _ := bv.GetBool()
	if !b {
		t.Error("b = false, want true")
	}

	cv, _ := roundTripped.GetObjectItem("c")
	c, _ := cv.GetDouble()
	if c != 3.5 {
		t.Errorf("c = %v, want 3.5", c)
	}
}

func TestHasChild(t *testing.T) {
	obj := Initialize(KindObject)
	_ = obj.AddString("present", "x")
	if !obj.HasChild("present") {
		t.Error("HasChild(present) = false, want true")
	}
	if obj.HasChild("absent") {
		t.Error("HasChild(absent) = true, want false")
	}
}

func TestParseEmptyBufferIsInvalidParameter(t *testing.T) {
	_, err := Parse(nil)
	if err == nil {
		t.Fatal("expected error for empty buffer")
	}
}

func TestDuplicateIsStructurallyIndependent(t *testing.T) {
	obj := Initialize(KindObject)
	_ = obj.AddString("k", "v1")

	dup := obj.Duplicate()
	_ = obj.AddString("k2", "v2")

	if dup.HasChild("k2") {
		t.Fatal("duplicate should not observe mutations made to the original after Duplicate()")
	}
}
