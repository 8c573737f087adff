package votes

import "github.com/google/uuid"

// CastVoteInput is a parsed cast-vote request.
type CastVoteInput struct {
	DealID   uuid.UUID
	DeviceID string
	VoteType string
}

// CastVoteResult carries the deal counters after the vote landed.
type CastVoteResult struct {
	HotVotes  int `json:"hotVotes"`
	ColdVotes int `json:"coldVotes"`
}
