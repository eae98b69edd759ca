package bundoc

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/kartikbazzad/bundoc-go/transport"
)

// stubTransport serves one partition with two fixed pages.
type stubTransport struct {
	itemCalls int
}

func (s *stubTransport) QueryPlan(context.Context, string, string, string) ([]byte, error) {
	return []byte(`{"orderBy":"_mergeOrder"}`), nil
}

func (s *stubTransport) PartitionKeyRanges(context.Context, string) ([]byte, error) {
	return []byte(`{"PartitionKeyRanges":[{"id":"0","minInclusive":"","maxExclusive":"FF"}]}`), nil
}

func (s *stubTransport) QueryItems(_ context.Context, req *transport.ItemsRequest) (*transport.ItemsResponse, error) {
	s.itemCalls++
	switch req.Continuation {
	case "":
		return &transport.ItemsResponse{
			Data:             []byte(`{"Documents":[{"id":"a","_mergeOrder":1},{"id":"b","_mergeOrder":2}]}`),
			NextContinuation: "p2",
			SessionToken:     "0:1#100",
		}, nil
	case "p2":
		return &transport.ItemsResponse{
			Data:         []byte(`{"Documents":[{"id":"c","_mergeOrder":3}]}`),
			SessionToken: "0:1#103",
		}, nil
	default:
		return nil, fmt.Errorf("unexpected continuation %q", req.Continuation)
	}
}

func TestClientQuery(t *testing.T) {
	stub := &stubTransport{}
	client, err := NewClient("", WithTransport(stub))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	container := client.Container("orders")
	pager := container.Query("SELECT * FROM c")

	var ids []string
	for pager.Next(context.Background()) {
		for _, item := range pager.Page().Items {
			var doc struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(item, &doc); err != nil {
				t.Fatalf("decode item: %v", err)
			}
			ids = append(ids, doc.ID)
		}
	}
	if err := pager.Err(); err != nil {
		t.Fatalf("pager error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ids = %v, want 3 items", ids)
	}

	// Session token observed on responses is readable through the handle.
	if token, ok := container.SessionToken(); !ok || token != "0:1#103" {
		t.Errorf("session token = %q, %v", token, ok)
	}
}

func TestClientSessionAccessors(t *testing.T) {
	client, err := NewClient("", WithTransport(&stubTransport{}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	container := client.Container("orders")
	if err := container.ObserveSessionToken("42:1#123#4=500"); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if token, ok := container.SessionToken(); !ok || token != "42:1#123#4=500" {
		t.Errorf("session token = %q, %v", token, ok)
	}

	container.ClearSession()
	if _, ok := container.SessionToken(); ok {
		t.Error("cleared container should have no token")
	}

	if err := container.ObserveSessionToken("42:1#123"); err != nil {
		t.Fatalf("observe: %v", err)
	}
	client.ClearSessions()
	if client.Sessions().ContainerCount() != 0 {
		t.Error("ClearSessions should drop all container entries")
	}
}

func TestClientRequiresEndpointWithoutTransport(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Error("expected error when no endpoint and no transport are given")
	}
}
