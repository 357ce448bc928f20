package rag

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestAskBlankQuestionMakesNoCalls(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	gen := &fakeGenerator{answer: "x"}
	asker, err := NewAsker(emb, store, gen, DefaultTopK)
	if err != nil {
		t.Fatalf("NewAsker error: %v", err)
	}
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := asker.Ask(context.Background(), q)
		if !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("question %q: expected ErrInvalidQuestion, got %v", q, err)
		}
	}
	if emb.calls.Load() != 0 || store.searches != 0 || gen.calls != 0 {
		t.Fatalf("expected no downstream calls")
	}
}

func TestAskBuildsContextAndSources(t *testing.T) {
	store := &fakeStore{hits: []SearchHit{
		{ID: "1", Text: "Refunds take 14 days.", Score: 0.91, Source: "refunds.txt"},
		{ID: "2", Text: "Refunds need a receipt.", Score: 0.80, Source: "refunds.txt"},
		{ID: "3", Text: "Shipping is free.", Score: 0.42, Source: "shipping.pdf"},
	}}
	gen := &fakeGenerator{answer: "Refunds take 14 days."}
	asker, _ := NewAsker(&fakeEmbedder{}, store, gen, DefaultTopK)

	ans, err := asker.Ask(context.Background(), "How long do refunds take?")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if ans.Answer != "Refunds take 14 days." {
		t.Fatalf("answer = %q", ans.Answer)
	}
	if want := []string{"refunds.txt", "shipping.pdf"}; !reflect.DeepEqual(ans.Sources, want) {
		t.Fatalf("sources = %v, want %v", ans.Sources, want)
	}
	wantCtx := "- Refunds take 14 days.\n- Refunds need a receipt.\n- Shipping is free.\n"
	if gen.lastContext != wantCtx {
		t.Fatalf("context = %q", gen.lastContext)
	}
	if gen.lastQ != "How long do refunds take?" {
		t.Fatalf("question = %q", gen.lastQ)
	}
}

func TestAskZeroHitsStillGenerates(t *testing.T) {
	gen := &fakeGenerator{answer: "Not enough data."}
	asker, _ := NewAsker(&fakeEmbedder{}, &fakeStore{}, gen, 3)

	ans, err := asker.Ask(context.Background(), "What is the meaning of life?")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if gen.calls != 1 || gen.lastContext != "" {
		t.Fatalf("expected one generate call with empty context, got %d calls, context %q", gen.calls, gen.lastContext)
	}
	if ans.Sources == nil || len(ans.Sources) != 0 {
		t.Fatalf("expected empty sources, got %#v", ans.Sources)
	}
}

func TestAskRespectsTopK(t *testing.T) {
	store := &fakeStore{hits: []SearchHit{{Text: "a"}, {Text: "b"}, {Text: "c"}}}
	gen := &fakeGenerator{}
	asker, _ := NewAsker(&fakeEmbedder{}, store, gen, 2)
	if _, err := asker.Ask(context.Background(), "q"); err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if gen.lastContext != "- a\n- b\n" {
		t.Fatalf("context = %q", gen.lastContext)
	}
}

func TestAskPropagatesFailures(t *testing.T) {
	asker, _ := NewAsker(&fakeEmbedder{failOn: "q"}, &fakeStore{}, &fakeGenerator{}, 1)
	if _, err := asker.Ask(context.Background(), "q"); !errors.Is(err, ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}

	asker, _ = NewAsker(&fakeEmbedder{}, &fakeStore{err: ErrIndexUnavailable}, &fakeGenerator{}, 1)
	if _, err := asker.Ask(context.Background(), "q"); !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}

	gen := &fakeGenerator{err: errors.Join(ErrGenerationProvider, errBoom)}
	asker, _ = NewAsker(&fakeEmbedder{}, &fakeStore{}, gen, 1)
	if _, err := asker.Ask(context.Background(), "q"); !errors.Is(err, ErrGenerationProvider) {
		t.Fatalf("expected ErrGenerationProvider, got %v", err)
	}
}

func TestRetrieveTelemetry(t *testing.T) {
	store := &fakeStore{hits: []SearchHit{{Text: "alpha beta", Source: "s.txt"}}}
	asker, _ := NewAsker(&fakeEmbedder{}, store, &fakeGenerator{}, 4)
	res, err := asker.Retrieve(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if res.ContextTokens != 3 {
		t.Fatalf("context tokens = %d", res.ContextTokens)
	}
	if len(res.Hits) != 1 || res.Sources[0] != "s.txt" {
		t.Fatalf("unexpected retrieval: %+v", res)
	}
}

func TestNewAskerValidation(t *testing.T) {
	if _, err := NewAsker(&fakeEmbedder{}, &fakeStore{}, &fakeGenerator{}, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewAsker(&fakeEmbedder{}, nil, &fakeGenerator{}, 1); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
