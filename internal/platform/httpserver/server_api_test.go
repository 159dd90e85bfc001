package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ballotintegrity "ballotbox/contexts/election-core/ballot-integrity"
	integrityports "ballotbox/contexts/election-core/ballot-integrity/ports"
	integrityhttp "ballotbox/contexts/election-core/ballot-integrity/transport/http"
	ballotservice "ballotbox/contexts/election-core/ballot-service"
	ballothttp "ballotbox/contexts/election-core/ballot-service/transport/http"
	votecasting "ballotbox/contexts/election-core/vote-casting"
	castingports "ballotbox/contexts/election-core/vote-casting/ports"
	castinghttp "ballotbox/contexts/election-core/vote-casting/transport/http"
	voterregistry "ballotbox/contexts/election-core/voter-registry"
	registryports "ballotbox/contexts/election-core/voter-registry/ports"
	registryhttp "ballotbox/contexts/election-core/voter-registry/transport/http"
)

type testServer struct {
	server    *Server
	ballots   ballotservice.Module
	registry  voterregistry.Module
	casting   votecasting.Module
	integrity ballotintegrity.Module
}

func newTestServer() testServer {
	ballots := ballotservice.NewInMemoryModule(nil, nil)
	registry := voterregistry.NewInMemoryModule(nil, nil)
	casting := votecasting.NewInMemoryModule(nil, nil)
	integrity := ballotintegrity.NewInMemoryModule(nil)
	return testServer{
		server:    New(ballots, registry, casting, integrity, nil, ""),
		ballots:   ballots,
		registry:  registry,
		casting:   casting,
		integrity: integrity,
	}
}

func (ts testServer) do(t *testing.T, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var payload T
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return payload
}

func TestBallotRoutes(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/v1/ballots", ballothttp.CreateBallotRequest{
		Title:        "Board election 2026",
		CreatorEmail: "chair@example.com",
		Questions: []ballothttp.QuestionInput{
			{
				Prompt:  "Who should chair the board?",
				Type:    "single",
				Choices: []ballothttp.ChoiceInput{{Label: "Ada"}, {Label: "Grace"}},
			},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ballot status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[ballothttp.BallotDetailResponse](t, rec)
	if created.BallotID == "" || created.Status != "draft" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/ballots/"+created.BallotID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get ballot status = %d", rec.Code)
	}
	fetched := decodeBody[ballothttp.BallotDetailResponse](t, rec)
	if len(fetched.Questions) != 1 || len(fetched.Questions[0].Choices) != 2 {
		t.Fatalf("ballot tree not returned: %+v", fetched)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/ballots/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing ballot status = %d, want 404", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/ballots/"+created.BallotID+"/status", ballothttp.ChangeStatusRequest{To: "active"})
	if rec.Code != http.StatusOK {
		t.Fatalf("activate status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPost, "/api/v1/ballots/"+created.BallotID+"/status", ballothttp.ChangeStatusRequest{To: "draft"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("illegal transition status = %d, want 409", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ballots", strings.NewReader("{broken"))
	rec = httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed json status = %d, want 400", rec.Code)
	}
}

func TestVoterRoutes(t *testing.T) {
	ts := newTestServer()
	ts.registry.Store.SetBallot(registryports.BallotRef{BallotID: "ballot-1", Status: "draft"})

	rec := ts.do(t, http.MethodPost, "/api/v1/ballots/ballot-1/voters", registryhttp.RegisterVoterRequest{
		Email: "Ada@Example.com",
		Name:  "Ada",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register voter status = %d, body %s", rec.Code, rec.Body.String())
	}
	registered := decodeBody[registryhttp.VoterResponse](t, rec)
	if registered.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", registered.Email)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/ballots/ballot-1/voters", registryhttp.RegisterVoterRequest{
		Email: "not-an-email",
		Name:  "X",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad email status = %d, want 422", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/ballots/ballot-1/voters/import", registryhttp.ImportVotersRequest{
		Voters: []registryhttp.RegisterVoterRequest{
			{Email: "ada@example.com", Name: "Ada"},
			{Email: "grace@example.com", Name: "Grace"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	imported := decodeBody[registryhttp.ImportVotersResponse](t, rec)
	if len(imported.Added) != 1 || imported.ExistingCount != 1 || imported.TotalVoters != 2 {
		t.Fatalf("unexpected import response: %+v", imported)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/ballots/ballot-1/voters/"+registered.VoterID+"/verify", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d", rec.Code)
	}
	verified := decodeBody[registryhttp.VoterResponse](t, rec)
	if !verified.IsVerified {
		t.Fatal("voter not verified in response")
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/ballots/ballot-1/voters", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list voters status = %d", rec.Code)
	}
	listed := decodeBody[registryhttp.VoterListResponse](t, rec)
	if len(listed.Items) != 2 {
		t.Fatalf("listed voters = %d, want 2", len(listed.Items))
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/ballots/missing/voters", registryhttp.RegisterVoterRequest{
		Email: "ada@example.com",
		Name:  "Ada",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing ballot status = %d, want 404", rec.Code)
	}
}

func TestVoteRoutes(t *testing.T) {
	ts := newTestServer()
	ts.casting.Store.SetBallot(castingports.BallotProjection{
		BallotID:    "ballot-1",
		Status:      "active",
		TotalVoters: 2,
	})
	ts.casting.Store.SetQuestion(castingports.QuestionProjection{
		QuestionID: "q1", BallotID: "ballot-1", Prompt: "Chair", Type: "single", MaxSelections: 1,
	})
	ts.casting.Store.SetChoice(castingports.ChoiceProjection{ChoiceID: "c1", QuestionID: "q1", Label: "Ada"})
	ts.casting.Store.SetChoice(castingports.ChoiceProjection{ChoiceID: "c2", QuestionID: "q1", Label: "Grace"})
	ts.casting.Store.SetVoter(castingports.VoterRecord{VoterID: "voter-1", BallotID: "ballot-1", Email: "v1@example.com"})
	ts.casting.Store.SetVoter(castingports.VoterRecord{VoterID: "outsider", BallotID: "ballot-2", Email: "out@example.com"})

	cast := castinghttp.CastVoteRequest{
		VoterID: "voter-1",
		Answers: []castinghttp.AnswerInput{{QuestionID: "q1", ChoiceID: "c1"}},
	}
	rec := ts.do(t, http.MethodPost, "/api/v1/ballots/ballot-1/votes", cast)
	if rec.Code != http.StatusCreated {
		t.Fatalf("cast status = %d, body %s", rec.Code, rec.Body.String())
	}
	receipt := decodeBody[castinghttp.CastVoteResponse](t, rec)
	if receipt.AnsweredCount != 1 {
		t.Fatalf("answered count = %d, want 1", receipt.AnsweredCount)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/ballots/ballot-1/votes", cast)
	if rec.Code != http.StatusConflict {
		t.Fatalf("recast status = %d, want 409", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/ballots/ballot-1/votes", castinghttp.CastVoteRequest{
		VoterID: "outsider",
		Answers: []castinghttp.AnswerInput{{QuestionID: "q1", ChoiceID: "c1"}},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider status = %d, want 403", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/ballots/ballot-1/votes", castinghttp.CastVoteRequest{
		VoterID: "voter-1",
		Answers: []castinghttp.AnswerInput{{QuestionID: "q9", ChoiceID: "c1"}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown question status = %d, want 422", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/ballots/ballot-1/results", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d", rec.Code)
	}
	results := decodeBody[castinghttp.BallotResultsResponse](t, rec)
	if results.BallotsReceived != 1 {
		t.Fatalf("ballots received = %d, want 1", results.BallotsReceived)
	}
}

func TestIntegrityRoutes(t *testing.T) {
	ts := newTestServer()
	ts.integrity.Store.SetBallot(integrityports.BallotSnapshot{
		BallotID:        "ballot-1",
		Status:          "active",
		CreatorEmail:    "creator@example.com",
		TotalVoters:     1,
		BallotsReceived: 1,
	})
	ts.integrity.Store.SetVoter(integrityports.VoterSnapshot{
		VoterID: "voter-1", BallotID: "ballot-1", Email: "v1@example.com", HasVoted: true,
	})
	ts.integrity.Store.SetVote(integrityports.VoteSnapshot{
		VoteID: "vote-1", BallotID: "ballot-1", VoterID: "voter-1", QuestionID: "q1", ChoiceID: "c1",
	})
	ts.integrity.Store.RemoveVoter("voter-1")

	rec := ts.do(t, http.MethodGet, "/api/v1/admin/integrity/ballot-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d", rec.Code)
	}
	report := decodeBody[integrityhttp.ReportResponse](t, rec)
	if report.Passed || len(report.OrphanedVotes) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/admin/integrity/ballot-1/repair", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repair status = %d, body %s", rec.Code, rec.Body.String())
	}
	repaired := decodeBody[integrityhttp.RepairResponse](t, rec)
	if repaired.CreatedVoters != 1 || repaired.FixedVotes != 1 {
		t.Fatalf("unexpected repair response: %+v", repaired)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/integrity/ballot-1", nil)
	report = decodeBody[integrityhttp.ReportResponse](t, rec)
	if !report.Passed {
		t.Fatalf("ballot still failing after repair: %+v", report)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/integrity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate all status = %d", rec.Code)
	}
	list := decodeBody[integrityhttp.ReportListResponse](t, rec)
	if len(list.Items) != 1 {
		t.Fatalf("report list = %d items, want 1", len(list.Items))
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/integrity/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing ballot status = %d, want 404", rec.Code)
	}
}
