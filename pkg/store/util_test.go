package store

import (
	"reflect"
	"testing"
)

func TestChunkRange(t *testing.T) {
	var chunks [][2]int
	err := ChunkRange(5, 2, func(start, end int) error {
		chunks = append(chunks, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{0, 2}, {2, 4}, {4, 5}}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("chunks = %v, want %v", chunks, want)
	}

	if err := ChunkRange(0, 2, func(start, end int) error {
		t.Error("callback should not run for empty range")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"欧阳修", "", "滁州", "欧阳修"})
	want := []string{"欧阳修", "滁州"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if DedupeStrings(nil) != nil {
		t.Error("nil input should stay nil")
	}
}
