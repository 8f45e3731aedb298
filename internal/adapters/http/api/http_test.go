package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/padflow/internal/adapters/http/api"
	"github.com/okian/padflow/internal/adapters/repository"
	"github.com/okian/padflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	seen     map[string]bool
	enqueue  bool
	enqueued []model.Job

	solveErr error
	results  map[string]model.SolveRecord
	storeErr error
}

func newMockDeps() *mockDeps {
	return &mockDeps{seen: map[string]bool{}, enqueue: true, results: map[string]model.SolveRecord{}}
}

func (m *mockDeps) SeenAndRecord(_ context.Context, id string) bool {
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeps) Unrecord(_ context.Context, id string) { delete(m.seen, id) }

func (m *mockDeps) Size() int64 { return int64(len(m.seen)) }

func (m *mockDeps) Enqueue(_ context.Context, j model.Job) bool { //nolint:gocritic // jobs travel by value
	if !m.enqueue {
		return false
	}
	m.enqueued = append(m.enqueued, j)
	return true
}

func (m *mockDeps) Solve(_ context.Context, req model.SolveRequest) (model.EngineResult, error) {
	if m.solveErr != nil {
		return model.EngineResult{}, m.solveErr
	}
	return model.EngineResult{Score: 100, DebugEvents: make([]model.DebugEvent, len(req.Performance.Events))}, nil
}

func (m *mockDeps) Latest(_ context.Context, projectID string) (model.SolveRecord, error) {
	if m.storeErr != nil {
		return model.SolveRecord{}, m.storeErr
	}
	rec, ok := m.results[projectID]
	if !ok {
		return model.SolveRecord{}, fmt.Errorf("%w: %s", repository.ErrNotFound, projectID)
	}
	return rec, nil
}

func (m *mockDeps) Projects(context.Context) ([]string, error) {
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	var ids []string
	for id := range m.results {
		ids = append(ids, id)
	}
	return ids, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]any { return map[string]any{"queue_len": 0} }

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

const solveBody = `{"performance":{"tempo":120,"events":[{"pitch":36,"startTime":0}]},"sections":[]}`

func TestServer(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newMockDeps()
		mux := http.NewServeMux()
		api.NewServer(deps, mockStats{}, api.WithIDGenerator(func() string { return "generated" })).Register(mux)

		Convey("When metrics are scraped", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")

			Convey("Then the registry is exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "padflow_")
			})
		})

		Convey("When stats are requested", func() {
			w := serve(mux, http.MethodGet, "/stats", "")

			Convey("Then the provider's stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["queue_len"], ShouldEqual, 0.0)
			})
		})

		Convey("When a solve is posted", func() {
			w := serve(mux, http.MethodPost, "/solve", solveBody)

			Convey("Then the result is returned inline", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["score"], ShouldEqual, 100.0)
			})
		})

		Convey("When a solve has malformed JSON", func() {
			w := serve(mux, http.MethodPost, "/solve", `{`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the solver rejects the input", func() {
			deps.solveErr = fmt.Errorf("section 0: %w", model.ErrInvalidSection)
			w := serve(mux, http.MethodPost, "/solve", solveBody)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the solver fails for another reason", func() {
			deps.solveErr = errors.New("boom")
			w := serve(mux, http.MethodPost, "/solve", solveBody)

			Convey("Then it is a server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(w)["code"], ShouldEqual, "internal_error")
			})
		})

		Convey("When solve is called with GET", func() {
			w := serve(mux, http.MethodGet, "/solve", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a job is submitted without an ID", func() {
			w := serve(mux, http.MethodPost, "/jobs",
				`{"project_id":"song","revision":2,"performance":{"tempo":120,"events":[]},"sections":[]}`)

			Convey("Then it is accepted under a generated ID", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				body := decode(w)
				So(body["status"], ShouldEqual, "accepted")
				So(body["job_id"], ShouldEqual, "generated")
				So(len(deps.enqueued), ShouldEqual, 1)
				So(deps.enqueued[0].ProjectID, ShouldEqual, "song")
				So(deps.enqueued[0].Revision, ShouldEqual, int64(2))
				So(deps.enqueued[0].Request.Performance.Tempo, ShouldEqual, 120.0)
			})
		})

		Convey("When the same job is submitted twice", func() {
			body := `{"job_id":"j1","project_id":"song","performance":{"tempo":120}}`
			first := serve(mux, http.MethodPost, "/jobs", body)
			second := serve(mux, http.MethodPost, "/jobs", body)

			Convey("Then the second is reported as a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decode(second)["duplicate"], ShouldBeTrue)
				So(len(deps.enqueued), ShouldEqual, 1)
			})
		})

		Convey("When the queue is full", func() {
			deps.enqueue = false
			w := serve(mux, http.MethodPost, "/jobs", `{"job_id":"j1","project_id":"song","performance":{"tempo":120}}`)

			Convey("Then the job is rejected and can be retried", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(w)["code"], ShouldEqual, "backpressure")
				So(deps.Size(), ShouldEqual, int64(0))
			})
		})

		Convey("When a job has no project", func() {
			w := serve(mux, http.MethodPost, "/jobs", `{"job_id":"j1"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["message"], ShouldContainSubstring, "missing project_id")
			})
		})

		Convey("When a job has a negative revision", func() {
			w := serve(mux, http.MethodPost, "/jobs", `{"project_id":"song","revision":-1}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a job carries a request the solver would reject", func() {
			bad := `{"job_id":"j2","project_id":"p","performance":{"tempo":-5,"events":[{"pitch":36,"startTime":0}]},` +
				`"sections":[{"startMeasure":1,"lengthInMeasures":4,"pitchMapping":{"originPitch":36}}]}`
			w := serve(mux, http.MethodPost, "/jobs", bad)

			Convey("Then it is a bad request and nothing is queued", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["message"], ShouldContainSubstring, "invalid tempo")
				So(deps.enqueued, ShouldBeEmpty)
				So(deps.Size(), ShouldEqual, int64(0))
			})

			Convey("And a corrected resubmission under the same ID is accepted", func() {
				fixed := strings.Replace(bad, `"tempo":-5`, `"tempo":120`, 1)
				So(serve(mux, http.MethodPost, "/jobs", fixed).Code, ShouldEqual, http.StatusAccepted)
				So(len(deps.enqueued), ShouldEqual, 1)
			})
		})

		Convey("When a job carries a malformed section", func() {
			w := serve(mux, http.MethodPost, "/jobs",
				`{"job_id":"j3","project_id":"p","performance":{"tempo":120},`+
					`"sections":[{"startMeasure":0,"lengthInMeasures":4,"pitchMapping":{"originPitch":36}}]}`)

			Convey("Then the section is named in the error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["message"], ShouldContainSubstring, "section 0")
				So(deps.Size(), ShouldEqual, int64(0))
			})
		})

		Convey("When a published result is requested", func() {
			deps.results["song"] = model.SolveRecord{ProjectID: "song", Revision: 4, Result: model.EngineResult{Score: 85}}
			w := serve(mux, http.MethodGet, "/results/song", "")

			Convey("Then the record is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["revision"], ShouldEqual, 4.0)
				So(body["result"].(map[string]any)["score"], ShouldEqual, 85.0)
			})

			Convey("And the project is listed", func() {
				w := serve(mux, http.MethodGet, "/results", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["projects"], ShouldResemble, []any{"song"})
			})
		})

		Convey("When an unknown project is requested", func() {
			w := serve(mux, http.MethodGet, "/results/missing", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When no project is listed", func() {
			w := serve(mux, http.MethodGet, "/results", "")

			Convey("Then an empty list is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["projects"], ShouldResemble, []any{})
			})
		})

		Convey("When the store is down", func() {
			deps.storeErr = errors.New("disk gone")

			Convey("Then reads are server errors", func() {
				So(serve(mux, http.MethodGet, "/results/song", "").Code, ShouldEqual, http.StatusInternalServerError)
				So(serve(mux, http.MethodGet, "/results", "").Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the result path is malformed", func() {
			w := serve(mux, http.MethodGet, "/results/a/b", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestKindError(t *testing.T) {
	Convey("Given a wrapped API error", t, func() {
		cause := errors.New("unexpected EOF")
		err := api.WrapKind("api.post_job", api.ErrBadRequest, cause)

		Convey("Then both kind and cause are matchable", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.post_job: bad request: unexpected EOF")
		})

		Convey("Then a bare kind formats without a cause", func() {
			So(api.NewKind("api.post_job", api.ErrBackpressure).Error(), ShouldEqual, "api.post_job: backpressure")
		})
	})
}
