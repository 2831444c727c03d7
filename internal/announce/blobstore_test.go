package announce

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	blob := Blob{Data: []byte("MP3"), ContentType: "audio/mpeg"}
	if err := s.Put(ctx, "id-1", blob, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, found, err := s.Get(ctx, "id-1")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if !bytes.Equal(got.Data, blob.Data) || got.ContentType != "audio/mpeg" {
		t.Fatalf("got %+v", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "id-1", Blob{Data: []byte("x")}, 30*time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, found, _ := s.Get(ctx, "id-1"); !found {
		t.Fatal("blob must be retrievable inside the retention window")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, found, _ := s.Get(ctx, "id-1")
		if !found {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("blob never expired")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMemoryStoreConcurrentReadsIdentical(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	want := []byte("identical-bytes")
	_ = s.Put(ctx, "id-1", Blob{Data: want}, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, found, err := s.Get(ctx, "id-1")
			if err != nil || !found || !bytes.Equal(got.Data, want) {
				t.Errorf("concurrent get diverged: found=%v err=%v", found, err)
			}
		}()
	}
	wg.Wait()
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	s := NewMemoryStore()
	if _, found, _ := s.Get(context.Background(), "nope"); found {
		t.Fatal("unknown id reported found")
	}
}
