package nav

import (
	"testing"
	"time"
)

func TestMemoryNavigatorQueryCopy(t *testing.T) {
	n := NewMemoryNavigator(queryOf("zoom", "5"))

	q := n.Query()
	q.Set("zoom", "9")

	if n.Query().Get("zoom") != "5" {
		t.Error("Query must return a copy")
	}
}

func TestMemoryNavigatorPushReplace(t *testing.T) {
	n := NewMemoryNavigator(queryOf())

	n.PushQuery(queryOf("zoom", "5"))
	if n.History().Len() != 2 {
		t.Errorf("push should add an entry, got len %d", n.History().Len())
	}

	n.ReplaceQuery(queryOf("zoom", "6"))
	if n.History().Len() != 2 {
		t.Errorf("replace should not add an entry, got len %d", n.History().Len())
	}
	if n.Query().Get("zoom") != "6" {
		t.Errorf("expected zoom 6, got %q", n.Query().Get("zoom"))
	}
}

func TestMemoryNavigatorReady(t *testing.T) {
	n := NewMemoryNavigator(queryOf())

	select {
	case <-n.Ready():
		t.Fatal("ready channel should not be closed before MarkReady")
	default:
	}

	n.MarkReady()
	n.MarkReady() // second call is a no-op

	select {
	case <-n.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready channel should be closed after MarkReady")
	}
}
