package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockPipeline struct {
	ready bool
}

func (m *mockPipeline) Ready() bool { return m.ready }

// --- Tests ---

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		storeErr   error
		embErr     error
		ready      bool
		wantStatus Status
		want       map[string]CheckResult
	}{
		{
			name:       "all healthy",
			ready:      true,
			wantStatus: Healthy,
			want:       map[string]CheckResult{"index_store": CheckOK, "embedding": CheckOK, "pipeline": CheckOK},
		},
		{
			name:       "pipeline pending",
			wantStatus: Healthy,
			want:       map[string]CheckResult{"index_store": CheckOK, "embedding": CheckOK, "pipeline": CheckPending},
		},
		{
			name:       "store error",
			storeErr:   errors.New("conn refused"),
			ready:      true,
			wantStatus: Degraded,
			want:       map[string]CheckResult{"index_store": CheckError, "embedding": CheckOK, "pipeline": CheckOK},
		},
		{
			name:       "embedding error",
			embErr:     errors.New("timeout"),
			wantStatus: Degraded,
			want:       map[string]CheckResult{"index_store": CheckOK, "embedding": CheckError, "pipeline": CheckPending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockStorePinger{err: tt.storeErr}, &mockEmbeddingChecker{err: tt.embErr}, &mockPipeline{ready: tt.ready})
			r := svc.Check(context.Background())

			if r.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tt.wantStatus)
			}
			for k, v := range tt.want {
				if r.Checks[k] != v {
					t.Errorf("checks[%s] = %q, want %q", k, r.Checks[k], v)
				}
			}
		})
	}
}

func TestCheck_OptionalComponents(t *testing.T) {
	svc := New(&mockStorePinger{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent")
	}
	if _, ok := r.Checks["pipeline"]; ok {
		t.Error("pipeline check should be absent")
	}
}
