package httpadapter

import (
	"context"
	"log/slog"

	"ballotbox/contexts/election-core/ballot-integrity/application/commands"
	"ballotbox/contexts/election-core/ballot-integrity/application/queries"
	"ballotbox/contexts/election-core/ballot-integrity/domain/entities"
	httptransport "ballotbox/contexts/election-core/ballot-integrity/transport/http"
)

type Handler struct {
	Validator queries.ValidatorUseCase
	Repair    commands.RepairUseCase
	Logger    *slog.Logger
}

func (h Handler) ValidateBallotHandler(ctx context.Context, ballotID string) (httptransport.ReportResponse, error) {
	report, err := h.Validator.ValidateBallot(ctx, ballotID)
	if err != nil {
		return httptransport.ReportResponse{}, err
	}
	return toReportResponse(report), nil
}

func (h Handler) ValidateAllBallotsHandler(ctx context.Context) (httptransport.ReportListResponse, error) {
	reports, err := h.Validator.ValidateAllBallots(ctx)
	if err != nil {
		return httptransport.ReportListResponse{}, err
	}
	items := make([]httptransport.ReportResponse, 0, len(reports))
	for _, report := range reports {
		items = append(items, toReportResponse(report))
	}
	return httptransport.ReportListResponse{Items: items}, nil
}

func (h Handler) RepairBallotHandler(ctx context.Context, ballotID string) (httptransport.RepairResponse, error) {
	stats, err := h.Repair.RepairBallot(ctx, ballotID)
	if err != nil {
		return httptransport.RepairResponse{}, err
	}
	return httptransport.RepairResponse{
		BallotID:         ballotID,
		TotalVotes:       stats.TotalVotes,
		CreatedVoters:    stats.CreatedVoters,
		FixedVotes:       stats.FixedVotes,
		FinalTotalVoters: stats.FinalTotalVoters,
		FinalVotedVoters: stats.FinalVotedVoters,
	}, nil
}

func toReportResponse(report entities.Report) httptransport.ReportResponse {
	out := httptransport.ReportResponse{
		BallotID: report.BallotID,
		Passed:   report.Passed,
		Counts: httptransport.CountCheckItem{
			Reported:       report.Counts.Reported,
			DistinctVoters: report.Counts.DistinctVoters,
			Accurate:       report.Counts.Accurate,
		},
		OrphanedVotes:    make([]httptransport.OrphanedVoteItem, 0, len(report.OrphanedVotes)),
		CreatorSelfVotes: make([]httptransport.CreatorSelfVoteItem, 0, len(report.CreatorSelfVotes)),
		FlagIssues:       make([]httptransport.FlagIssueItem, 0, len(report.FlagIssues)),
		Recommendations:  report.Recommendations,
		CheckError:       report.CheckError,
	}
	for _, orphan := range report.OrphanedVotes {
		out.OrphanedVotes = append(out.OrphanedVotes, httptransport.OrphanedVoteItem{
			VoteID:  orphan.VoteID,
			VoterID: orphan.VoterID,
		})
	}
	for _, selfVote := range report.CreatorSelfVotes {
		out.CreatorSelfVotes = append(out.CreatorSelfVotes, httptransport.CreatorSelfVoteItem{
			VoteID:  selfVote.VoteID,
			VoterID: selfVote.VoterID,
			Email:   selfVote.Email,
		})
	}
	for _, issue := range report.FlagIssues {
		out.FlagIssues = append(out.FlagIssues, httptransport.FlagIssueItem{
			VoterID:   issue.VoterID,
			Email:     issue.Email,
			HasVoted:  issue.HasVoted,
			VoteCount: issue.VoteCount,
		})
	}
	return out
}
