package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestParseGRPCAddr(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		want    grpcAddr
		wantErr bool
	}{
		{name: "default REST port", rawURL: "http://localhost:6333", want: grpcAddr{host: "localhost", port: 6334}},
		{name: "custom port", rawURL: "http://qdrant:9000", want: grpcAddr{host: "qdrant", port: 9001}},
		{name: "no port", rawURL: "http://qdrant", want: grpcAddr{host: "qdrant", port: defaultGRPCPort}},
		{name: "no host", rawURL: "http://:6333", want: grpcAddr{host: "localhost", port: 6334}},
		{name: "https uses tls", rawURL: "https://cloud.example:6333", want: grpcAddr{host: "cloud.example", port: 6334, tls: true}},
		{name: "invalid URL", rawURL: "://invalid", wantErr: true},
		{name: "non-numeric port", rawURL: "http://localhost:abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGRPCAddr(tt.rawURL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseGRPCAddr(%q) error = %v, wantErr %v", tt.rawURL, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseGRPCAddr(%q) = %+v, want %+v", tt.rawURL, got, tt.want)
			}
		})
	}
}

func TestQdrantStore_RejectsBeforeCalling(t *testing.T) {
	// None of these reach the client, so an unconnected store is enough.
	store := &QdrantStore{}
	ctx := context.Background()

	if err := store.Upsert(ctx, "legal", nil); err != nil {
		t.Errorf("Upsert(nil) error = %v", err)
	}
	if _, err := store.Search(ctx, "legal", []float32{1}, 0); err == nil {
		t.Error("Search(k=0) expected error")
	}
	if err := store.ResetCollection(ctx, "legal", 0); err == nil {
		t.Error("ResetCollection(size 0) expected error")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() on unconnected store error = %v", err)
	}
}

func TestPayloadToMap(t *testing.T) {
	payload := map[string]*qdrant.Value{
		"source":   qdrant.NewValueString("companies_act"),
		"position": qdrant.NewValueInt(7),
		"weight":   qdrant.NewValueDouble(0.5),
		"final":    qdrant.NewValueBool(true),
		"missing":  nil,
	}

	got := payloadToMap(payload)

	want := map[string]any{
		"source":   "companies_act",
		"position": int64(7),
		"weight":   0.5,
		"final":    true,
	}
	if len(got) != len(want) {
		t.Fatalf("payloadToMap() = %v, want %v", got, want)
	}
	for key, value := range want {
		if got[key] != value {
			t.Errorf("payloadToMap()[%q] = %v (%T), want %v", key, got[key], got[key], value)
		}
	}
	if len(payloadToMap(nil)) != 0 {
		t.Error("payloadToMap(nil) should be empty")
	}
}
