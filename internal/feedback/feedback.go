// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package feedback posts user feedback to the webhook configured for its
// category, at most once per cooldown period.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/staranto/unitdex/internal/config"
	"github.com/staranto/unitdex/internal/store"
)

// Categories accepted by Submit, in display order.
var Categories = []string{"Bug Report", "Suggestion", "Content Issue", "Other"}

const (
	// Cooldown is the minimum time between two successful submissions.
	Cooldown = time.Minute

	// CooldownKey is the store key holding the last submission time in epoch
	// ms.
	CooldownKey = "lastFeedbackSubmission"

	// MaxDescription is the longest description accepted, in characters.
	MaxDescription = 2000

	maxFieldValue = 1024
	embedTitle    = "📝 New Feedback Submission"
	embedColor    = 0xb794f6
)

// Form is one feedback submission.
type Form struct {
	Category    string
	Subject     string
	Description string
	// Contact is optional. Empty submits anonymously.
	Contact string
}

// Validate checks the form before anything is sent.
func (f Form) Validate() error {
	if !validCategory(f.Category) {
		return fmt.Errorf("unknown category %q (want one of %s)", f.Category, strings.Join(Categories, ", "))
	}
	if strings.TrimSpace(f.Subject) == "" {
		return errors.New("subject is required")
	}
	if strings.TrimSpace(f.Description) == "" {
		return errors.New("description is required")
	}
	if n := len([]rune(f.Description)); n > MaxDescription {
		return fmt.Errorf("description is %d characters, the limit is %d", n, MaxDescription)
	}
	return nil
}

func validCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// CooldownError is returned while a previous submission is still cooling
// down.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %ds before submitting again", e.Seconds())
}

// Seconds is the remaining cooldown rounded up to whole seconds.
func (e *CooldownError) Seconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

type field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type footer struct {
	Text string `json:"text"`
}

type embed struct {
	Title     string  `json:"title"`
	Color     int     `json:"color"`
	Fields    []field `json:"fields"`
	Timestamp string  `json:"timestamp"`
	Footer    footer  `json:"footer"`
}

type payload struct {
	Embeds []embed `json:"embeds"`
}

// Submitter sends feedback forms.
type Submitter struct {
	Store    store.Store
	Client   *http.Client
	Webhooks map[string]string
	Now      func() time.Time
}

// Webhooks reads the category to URL map from feedback.webhooks in the
// config file.
func Webhooks() map[string]string {
	m, err := config.GetStringMap("feedback.webhooks")
	if err != nil {
		log.WithError(err).Debug("no feedback webhooks configured")
		return map[string]string{}
	}
	return m
}

func (s *Submitter) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Remaining is how much of the cooldown is left, zero when none.
func (s *Submitter) Remaining(ctx context.Context) time.Duration {
	raw, ok, err := s.Store.Get(ctx, CooldownKey)
	if err != nil || !ok {
		return 0
	}
	last, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		log.WithField("value", string(raw)).Debug("ignoring unreadable cooldown")
		return 0
	}
	left := Cooldown - s.now().Sub(time.UnixMilli(last))
	if left < 0 {
		return 0
	}
	return left
}

// Submit validates f and posts it to its category's webhook. The cooldown
// starts only once the webhook accepted the submission.
func (s *Submitter) Submit(ctx context.Context, f Form) error {
	if err := f.Validate(); err != nil {
		return err
	}

	if left := s.Remaining(ctx); left > 0 {
		return &CooldownError{Remaining: left}
	}

	url := s.Webhooks[f.Category]
	if url == "" {
		return fmt.Errorf("no webhook configured for %q", f.Category)
	}

	body, err := json.Marshal(buildPayload(f, s.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit feedback: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to submit feedback: webhook returned %d", resp.StatusCode)
	}

	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.Store.Set(ctx, CooldownKey, []byte(stamp)); err != nil {
		log.WithError(err).Warn("failed to record feedback cooldown")
	}

	log.WithField("category", f.Category).Info("feedback submitted")
	return nil
}

func buildPayload(f Form, now time.Time) payload {
	by := strings.TrimSpace(f.Contact)
	if by == "" {
		by = "Anonymous"
	}

	return payload{Embeds: []embed{{
		Title: embedTitle,
		Color: embedColor,
		Fields: []field{
			{Name: "Subject", Value: f.Subject},
			{Name: "Description", Value: clip(f.Description, maxFieldValue)},
		},
		Timestamp: now.UTC().Format(time.RFC3339),
		Footer:    footer{Text: "Submitted by " + by},
	}}}
}

// clip shortens s to n characters, ending in ... when anything was cut.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
