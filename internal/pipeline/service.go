// Package pipeline drives the batch cycle: claim pending reports, group
// them by topic, extract facts, resolve each fact into a story and record
// the merge decision.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/gaffer/internal/clubs"
	"horse.fit/gaffer/internal/db"
	"horse.fit/gaffer/internal/extract"
	"horse.fit/gaffer/internal/grouping"
	"horse.fit/gaffer/internal/story"
)

// Handoff receives stories whose state materially changed during a cycle.
// Downstream delivery (feeds, notifications) plugs in here.
type Handoff interface {
	Deliver(ctx context.Context, s *story.Story, res story.Resolution) error
}

// LogHandoff is the default Handoff: it only logs material updates.
type LogHandoff struct {
	Logger zerolog.Logger
}

func (h LogHandoff) Deliver(_ context.Context, s *story.Story, res story.Resolution) error {
	h.Logger.Info().
		Str("player", s.Player).
		Str("status", string(s.Status)).
		Int("importance", s.Importance).
		Str("decision", string(res.Decision)).
		Bool("new", res.IsNew).
		Msg("material story update")
	return nil
}

// CycleResult summarizes one processing cycle.
type CycleResult struct {
	Claimed    int `json:"claimed"`
	NewStories int `json:"new_stories"`
	Merged     int `json:"merged"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Requeued   int `json:"requeued"`
	Groups     int `json:"groups"`
}

type Service struct {
	pool           *db.Pool
	index          *clubs.Index
	extractor      extract.Extractor
	resolver       *story.Resolver
	handoff        Handoff
	batchSize      int
	maxAttempts    int
	persistTimeout time.Duration
	logger         zerolog.Logger
}

func NewService(
	pool *db.Pool,
	index *clubs.Index,
	extractor extract.Extractor,
	resolver *story.Resolver,
	handoff Handoff,
	batchSize, maxAttempts int,
	persistTimeout time.Duration,
	logger zerolog.Logger,
) *Service {
	if handoff == nil {
		handoff = LogHandoff{Logger: logger}
	}
	return &Service{
		pool:           pool,
		index:          index,
		extractor:      extractor,
		resolver:       resolver,
		handoff:        handoff,
		batchSize:      batchSize,
		maxAttempts:    maxAttempts,
		persistTimeout: persistTimeout,
		logger:         logger,
	}
}

// RunCycle claims one batch and processes it to completion. Items whose
// persistence fails transiently are requeued; extraction misses are
// recorded as skipped and never retried.
func (s *Service) RunCycle(ctx context.Context) (*CycleResult, error) {
	claimed, err := s.pool.ClaimPendingItems(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}

	result := &CycleResult{Claimed: len(claimed)}
	if len(claimed) == 0 {
		return result, nil
	}

	byID := make(map[int64]db.PendingItem, len(claimed))
	groupItems := make([]grouping.Item, 0, len(claimed))
	for _, item := range claimed {
		byID[item.RawItemID] = item
		groupItems = append(groupItems, grouping.Item{ID: item.RawItemID, Text: item.Text})
	}

	groups := grouping.GroupByTopic(groupItems, s.index)
	result.Groups = len(groups)

	// Deterministic group order keeps replays comparable.
	topics := make([]string, 0, len(groups))
	for topic := range groups {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		for _, member := range groups[topic] {
			item := byID[member.ID]
			if err := s.processItem(ctx, item, result); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Info().
		Int("claimed", result.Claimed).
		Int("groups", result.Groups).
		Int("new_stories", result.NewStories).
		Int("merged", result.Merged).
		Int("duplicates", result.Duplicates).
		Int("skipped", result.Skipped).
		Int("requeued", result.Requeued).
		Msg("processing cycle complete")

	return result, nil
}

// processItem handles one claimed report. All persistence for the item
// runs under the persist timeout so one slow write cannot stall the batch.
func (s *Service) processItem(ctx context.Context, item db.PendingItem, result *CycleResult) error {
	if s.persistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.persistTimeout)
		defer cancel()
	}

	facts, ok := s.extractor.Extract(item.Text, item.AuthorName)
	if !ok {
		result.Skipped++
		s.logger.Debug().
			Int64("raw_item_id", item.RawItemID).
			Str("source", item.Source).
			Msg("no transfer facts extracted, skipping")
		if err := s.pool.MarkItemSkipped(ctx, item.RawItemID, "no extractable transfer facts"); err != nil {
			return fmt.Errorf("mark item %d skipped: %w", item.RawItemID, err)
		}
		return s.recordEvent(ctx, item.RawItemID, nil, "skipped", nil, story.Resolution{})
	}

	facts.SourceName = item.Source
	if item.AuthorName != "" {
		facts.SourceName = item.AuthorName
	}
	if item.URL != nil {
		facts.SourceURL = *item.URL
	}

	publishedAt := time.Time{}
	if item.PublishedAt != nil {
		publishedAt = *item.PublishedAt
	}

	res, err := s.resolver.Resolve(ctx, facts, publishedAt)
	if err != nil {
		result.Requeued++
		s.logger.Warn().
			Err(err).
			Int64("raw_item_id", item.RawItemID).
			Int("attempts", item.Attempts).
			Msg("resolve failed, requeueing item")
		if rqErr := s.pool.RequeueItem(ctx, item.RawItemID, s.maxAttempts, err.Error()); rqErr != nil {
			return fmt.Errorf("requeue item %d: %w", item.RawItemID, rqErr)
		}
		return s.recordEvent(ctx, item.RawItemID, nil, "requeued", &facts, story.Resolution{})
	}

	switch res.Decision {
	case story.DecisionNewStory:
		result.NewStories++
	case story.DecisionMerged:
		result.Merged++
	case story.DecisionDuplicate:
		result.Duplicates++
	}

	if err := s.pool.MarkItemProcessed(ctx, item.RawItemID, res.Story.ID); err != nil {
		return fmt.Errorf("mark item %d processed: %w", item.RawItemID, err)
	}
	if err := s.recordEvent(ctx, item.RawItemID, res.Story, string(res.Decision), &facts, res); err != nil {
		return err
	}

	if res.MaterialUpdate {
		if err := s.handoff.Deliver(ctx, res.Story, res); err != nil {
			// Delivery is best-effort; the story itself is already durable.
			s.logger.Warn().Err(err).Int64("story_id", res.Story.ID).Msg("handoff delivery failed")
		}
	}
	return nil
}

func (s *Service) recordEvent(ctx context.Context, rawItemID int64, st *story.Story, decision string, facts *extract.Facts, res story.Resolution) error {
	event := &db.MergeEvent{
		RawItemID: rawItemID,
		Decision:  decision,
		Material:  res.MaterialUpdate,
		Ambiguous: res.Ambiguous,
	}
	if st != nil {
		event.StoryID = &st.ID
		event.IdentityKey = &st.IdentityKey
		before := string(res.StatusBefore)
		after := string(res.StatusAfter)
		event.StatusBefore = &before
		event.StatusAfter = &after
	}
	if facts != nil {
		details, err := json.Marshal(facts)
		if err == nil {
			event.Details = details
		}
	}
	if err := s.pool.InsertMergeEvent(ctx, event); err != nil {
		return fmt.Errorf("record merge event for item %d: %w", rawItemID, err)
	}
	return nil
}
