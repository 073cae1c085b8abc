package service

import (
	"testing"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"
)

func TestUploadRejectResubmitApprove(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(t)

	up1, err := f.engine.Upload(ctx, f.client, a.ID, UploadInput{Artifact: artifact("v1.pdf"), Comment: "first draft"})
	mustNoErr(t, err)
	if up1.Assignment.Status != models.AssignmentSubmitted || up1.Submission.Version != 1 {
		t.Fatalf("after first upload: %+v", up1)
	}
	if up1.Submission.SubmissionSource != models.SourceClient {
		t.Errorf("source = %s, want client", up1.Submission.SubmissionSource)
	}

	rej, err := f.engine.Review(ctx, f.consultant, up1.Submission.ID, ReviewInput{Decision: DecisionReject, Remarks: "fix page 2"})
	mustNoErr(t, err)
	if rej.Assignment.Status != models.AssignmentIncomplete {
		t.Fatalf("status = %s, want incomplete", rej.Assignment.Status)
	}
	if rej.Assignment.CurrentRemarks == nil || *rej.Assignment.CurrentRemarks != "fix page 2" {
		t.Fatalf("current remarks = %v", rej.Assignment.CurrentRemarks)
	}
	if rej.Submission.Status != models.SubmissionRejected {
		t.Errorf("v1 status = %s, want rejected", rej.Submission.Status)
	}

	up2, err := f.engine.Upload(ctx, f.admin, a.ID, UploadInput{Artifact: artifact("v2.pdf")})
	mustNoErr(t, err)
	if up2.Assignment.Status != models.AssignmentSubmitted {
		t.Fatalf("status = %s, want submitted", up2.Assignment.Status)
	}
	if up2.Assignment.CurrentRemarks != nil {
		t.Errorf("remarks should be cleared on resubmission, got %q", *up2.Assignment.CurrentRemarks)
	}
	if up2.Submission.SubmissionSource != models.SourceAdminOnBehalf {
		t.Errorf("source = %s, want admin on behalf", up2.Submission.SubmissionSource)
	}

	history, err := f.engine.History(ctx, a.ID)
	mustNoErr(t, err)
	if len(history) != 2 || history[0].Version != 2 || !history[0].IsLatest || history[1].IsLatest {
		t.Fatalf("history = %+v", history)
	}

	ok, err := f.engine.Review(ctx, f.consultant, up2.Submission.ID, ReviewInput{Decision: DecisionApprove})
	mustNoErr(t, err)
	if ok.Assignment.Status != models.AssignmentVerified || ok.Submission.Status != models.SubmissionApproved {
		t.Fatalf("after approve: assignment %s, submission %s", ok.Assignment.Status, ok.Submission.Status)
	}
	if ok.Assignment.VerifiedByID == nil || *ok.Assignment.VerifiedByID != f.consultant.UserID || ok.Assignment.VerifiedAt == nil {
		t.Errorf("verifier not recorded: %+v", ok.Assignment)
	}
}

func TestVerifiedAssignmentIsReadOnly(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(t)

	up, err := f.engine.Upload(ctx, f.client, a.ID, UploadInput{Artifact: artifact("v1.pdf")})
	mustNoErr(t, err)

	// readable while under review
	_, err = f.engine.SubmissionArtifact(ctx, f.viewer, up.Submission.ID)
	mustNoErr(t, err)

	_, err = f.engine.Review(ctx, f.admin, up.Submission.ID, ReviewInput{Decision: DecisionApprove})
	mustNoErr(t, err)

	_, err = f.engine.Upload(ctx, f.client, a.ID, UploadInput{Artifact: artifact("v2.pdf")})
	wantKind(t, err, workflow.KindInvalidState)

	_, err = f.engine.SubmissionArtifact(ctx, f.client, up.Submission.ID)
	wantKind(t, err, workflow.KindInvalidState)

	history, err := f.engine.History(ctx, a.ID)
	mustNoErr(t, err)
	if len(history) != 1 {
		t.Errorf("rejected upload must not reach the ledger, history has %d rows", len(history))
	}
}

func TestRejectRequiresRemarks(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(t)
	up, err := f.engine.Upload(ctx, f.client, a.ID, UploadInput{Artifact: artifact("v1.pdf")})
	mustNoErr(t, err)

	for _, remarks := range []string{"", "   "} {
		_, err = f.engine.Review(ctx, f.consultant, up.Submission.ID, ReviewInput{Decision: DecisionReject, Remarks: remarks})
		wantKind(t, err, workflow.KindValidationFailed)
	}

	_, err = f.engine.Review(ctx, f.consultant, up.Submission.ID, ReviewInput{Decision: "maybe"})
	wantKind(t, err, workflow.KindValidationFailed)

	got, err := f.engine.GetAssignment(ctx, a.ID)
	mustNoErr(t, err)
	if got.Status != models.AssignmentSubmitted {
		t.Errorf("failed reviews must not change state, status = %s", got.Status)
	}
}

func TestReviewStaleSubmission(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(t)

	up1, err := f.engine.Upload(ctx, f.client, a.ID, UploadInput{Artifact: artifact("v1.pdf")})
	mustNoErr(t, err)
	_, err = f.engine.Review(ctx, f.consultant, up1.Submission.ID, ReviewInput{Decision: DecisionReject, Remarks: "missing signature"})
	mustNoErr(t, err)
	_, err = f.engine.Upload(ctx, f.client, a.ID, UploadInput{Artifact: artifact("v2.pdf")})
	mustNoErr(t, err)

	for _, d := range []ReviewInput{
		{Decision: DecisionApprove},
		{Decision: DecisionReject, Remarks: "again"},
	} {
		_, err = f.engine.Review(ctx, f.consultant, up1.Submission.ID, d)
		wantKind(t, err, workflow.KindStaleSubmission)
	}

	werr := err.(*workflow.Error)
	if cur, ok := werr.Current.(models.Assignment); !ok || cur.Status != models.AssignmentSubmitted {
		t.Errorf("stale error should carry the current assignment, got %#v", werr.Current)
	}
}

func TestDoubleReviewFailsWithInvalidState(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(t)
	up, err := f.engine.Upload(ctx, f.client, a.ID, UploadInput{Artifact: artifact("v1.pdf")})
	mustNoErr(t, err)

	_, err = f.engine.Review(ctx, f.consultant, up.Submission.ID, ReviewInput{Decision: DecisionApprove})
	mustNoErr(t, err)

	_, err = f.engine.Review(ctx, f.consultant, up.Submission.ID, ReviewInput{Decision: DecisionApprove})
	wantKind(t, err, workflow.KindInvalidState)
}

func TestVersionsAreGaplessWithOneLatest(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(t)

	const rounds = 5
	for i := 1; i <= rounds; i++ {
		up, err := f.engine.Upload(ctx, f.client, a.ID, UploadInput{Artifact: artifact("doc.pdf")})
		mustNoErr(t, err)
		if up.Submission.Version != i {
			t.Fatalf("upload %d got version %d", i, up.Submission.Version)
		}
		if i < rounds {
			_, err = f.engine.Review(ctx, f.consultant, up.Submission.ID, ReviewInput{Decision: DecisionReject, Remarks: "again"})
			mustNoErr(t, err)
		}
	}

	history, err := f.engine.History(ctx, a.ID)
	mustNoErr(t, err)
	latest := 0
	for i, s := range history {
		if s.Version != rounds-i {
			t.Errorf("history[%d].Version = %d, want %d", i, s.Version, rounds-i)
		}
		if s.IsLatest {
			latest++
		}
	}
	if latest != 1 || !history[0].IsLatest {
		t.Errorf("expected exactly the newest submission to be latest, %d latest rows", latest)
	}
}

func TestAssignmentGate(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(t)

	_, err := f.engine.Upload(ctx, f.viewer, a.ID, UploadInput{Artifact: artifact("v1.pdf")})
	wantKind(t, err, workflow.KindForbidden)

	up, err := f.engine.Upload(ctx, f.client, a.ID, UploadInput{Artifact: artifact("v1.pdf")})
	mustNoErr(t, err)

	_, err = f.engine.Review(ctx, f.client, up.Submission.ID, ReviewInput{Decision: DecisionApprove})
	wantKind(t, err, workflow.KindForbidden)

	_, err = f.engine.Upload(ctx, f.client, a.ID, UploadInput{})
	wantKind(t, err, workflow.KindValidationFailed)

	_, err = f.engine.Upload(ctx, f.client, 4242, UploadInput{Artifact: artifact("v1.pdf")})
	wantKind(t, err, workflow.KindNotFound)

	_, err = f.engine.History(ctx, 4242)
	wantKind(t, err, workflow.KindNotFound)
}

func TestAssignTemplateOnce(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t)

	_, err := f.engine.AssignTemplate(ctx, f.admin, AssignInput{ProjectID: f.project.ID, TemplateID: tpl.ID})
	mustNoErr(t, err)
	_, err = f.engine.AssignTemplate(ctx, f.admin, AssignInput{ProjectID: f.project.ID, TemplateID: tpl.ID})
	wantKind(t, err, workflow.KindInvalidState)

	_, err = f.engine.AssignTemplate(ctx, f.admin, AssignInput{ProjectID: 999, TemplateID: tpl.ID})
	wantKind(t, err, workflow.KindNotFound)

	list, err := f.engine.ListAssignments(ctx, f.project.ID)
	mustNoErr(t, err)
	if len(list) != 1 || list[0].Template == nil || list[0].Template.ID != tpl.ID {
		t.Errorf("ListAssignments() = %+v", list)
	}
}
