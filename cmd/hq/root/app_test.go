package root

import (
	"errors"
	"reflect"
	"testing"
)

func TestCloseAllClosesEveryStoreInReverse(t *testing.T) {
	var order []string
	closers := []closer{
		{"local store", func() error { order = append(order, "local"); return nil }},
		{"remote store", func() error { order = append(order, "remote"); return errors.New("connection reset") }},
	}
	closeAll(closers)
	if want := []string{"remote", "local"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("close order = %v, want %v", order, want)
	}
}
