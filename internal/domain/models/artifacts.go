// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// Utterance is a single transcript line attributed to one speaker.
type Utterance struct {
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text"`
	Start   float64 `json:"start,omitempty"`
	End     float64 `json:"end,omitempty"`
}

// Transcript is the ordered transcript of a completed meeting, replaced
// wholesale on each successful ingestion.
type Transcript struct {
	MeetingUID string      `json:"meeting_uid"`
	Utterances []Utterance `json:"utterances"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// SpeakerSegment is one diarization span.
type SpeakerSegment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Diarization is the speaker segmentation of a completed meeting.
type Diarization struct {
	MeetingUID string           `json:"meeting_uid"`
	Segments   []SpeakerSegment `json:"segments"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// QAPair is one generated question/answer pair.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Summary is the AI-generated summary of a meeting, upserted as a singleton.
type Summary struct {
	MeetingUID  string    `json:"meeting_uid"`
	Content     string    `json:"content"`
	QA          []QAPair  `json:"qa,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ActionItem is one generated action item.
type ActionItem struct {
	Text     string `json:"text"`
	Assignee string `json:"assignee,omitempty"`
}

// ActionItemList is the ordered action item collection of a meeting, replaced
// in full on each successful generation.
type ActionItemList struct {
	MeetingUID string       `json:"meeting_uid"`
	Items      []ActionItem `json:"items"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
