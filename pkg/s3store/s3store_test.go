package s3store

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fluxbind-dev/fluxbind/pkg/fluxbind"
	"github.com/fluxbind-dev/fluxbind/pkg/fluxtest"
)

// stubAPI serves a mutable in-memory bucket.
type stubAPI struct {
	objects map[string]stubObject // full object key -> object
	gets    int
}

type stubObject struct {
	body []byte
	etag string
}

func (a *stubAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key, obj := range a.objects {
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(key),
			ETag: aws.String(obj.etag),
		})
	}
	return out, nil
}

func (a *stubAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	a.gets++
	obj := a.objects[aws.ToString(params.Key)]
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(obj.body)),
	}, nil
}

func TestRefreshPublishesChangedKeys(t *testing.T) {
	api := &stubAPI{objects: map[string]stubObject{
		"flags/dark_mode": {body: []byte("on"), etag: "v1"},
	}}
	store := New(api, "bucket", "flags/")
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	host := fluxtest.NewHost()
	w := fluxbind.NewWatcher(fluxtest.BuilderFunc(func(props fluxbind.Props, initial bool) fluxbind.State {
		return fluxbind.State{"dark": string(store.Get("dark_mode"))}
	}), nil, host.Apply)
	w.BuildInitial()
	defer w.Teardown()

	if w.State()["dark"] != "on" {
		t.Fatalf("initial state = %v", w.State())
	}
	fluxtest.ExpectKeys(t, w, "dark_mode")

	// Same ETag: refresh must neither re-fetch nor notify.
	gets := api.gets
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if api.gets != gets {
		t.Errorf("unchanged object was re-fetched")
	}
	if host.Count() != 0 {
		t.Errorf("unchanged refresh published %d notifications", host.Count())
	}

	// Changed ETag: fetch and notify the subscriber.
	api.objects["flags/dark_mode"] = stubObject{body: []byte("off"), etag: "v2"}
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if host.Count() != 1 || host.Last()["dark"] != "off" {
		t.Errorf("expected one applied draft with dark=off, got %v", host.States())
	}
}

func TestRefreshDropsRemovedObjects(t *testing.T) {
	api := &stubAPI{objects: map[string]stubObject{
		"flags/a": {body: []byte("1"), etag: "v1"},
		"flags/b": {body: []byte("2"), etag: "v1"},
	}}
	store := New(api, "bucket", "flags/")
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	builds := 0
	w := fluxbind.NewWatcher(fluxtest.BuilderFunc(func(props fluxbind.Props, initial bool) fluxbind.State {
		builds++
		return fluxbind.State{"keys": len(store.Keys())}
	}), nil, nil)
	w.BuildInitial()
	defer w.Teardown()

	if w.State()["keys"] != 2 {
		t.Fatalf("expected 2 keys, got %v", w.State()["keys"])
	}

	delete(api.objects, "flags/b")
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if builds != 2 {
		t.Errorf("removal did not reach the KeyAll subscriber, builds=%d", builds)
	}
	if w.State()["keys"] != 1 {
		t.Errorf("expected 1 key after removal, got %v", w.State()["keys"])
	}
	if store.Peek("b") != nil {
		t.Errorf("removed object still readable")
	}
}
