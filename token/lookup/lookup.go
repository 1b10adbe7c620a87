// Package lookup implements the token lookup service: the host facing event
// hooks that keep the index in step with admissions, spends and evictions,
// and the query dispatch over it.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/token-overlay/tokend/constants"
	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/index"
	"github.com/token-overlay/tokend/token/log"
	"github.com/token-overlay/tokend/token/topic"
)

var (
	// ErrUnknownService is returned for questions addressed to a lookup
	// service other than this one.
	ErrUnknownService = errors.New("unknown lookup service")

	// ErrMalformedOutpoint is returned when a query carries an outpoint that
	// does not parse.
	ErrMalformedOutpoint = errors.New("malformed outpoint")
)

// Query is the body of a lookup question. Outpoint beats tokenId beats the
// unfiltered listing; pagination and sorting apply to the list forms.
type Query struct {
	Outpoint  string     `json:"outpoint,omitempty"`
	TokenId   string     `json:"tokenId,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Skip      int        `json:"skip,omitempty"`
	SortOrder string     `json:"sortOrder,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
}

// Question addresses a query to a named lookup service.
type Question struct {
	Service string `json:"service"`
	Query   Query  `json:"query"`
}

// Service answers lookup questions for one topic's token index and applies
// the host's output lifecycle notifications to it.
type Service struct {
	store index.Store
}

func New(store index.Store) *Service {
	return &Service{store: store}
}

// OutputAdmitted stores a newly admitted output. Notifications for other
// topics are ignored. The locking script is decoded here so the index only
// ever holds records that parsed and verified; a store failure propagates so
// a failed write is never reported as a successful admission.
func (s *Service) OutputAdmitted(ctx context.Context, topicName string, outpoint *util.OutPoint, lockingScript []byte) error {
	if topicName != constants.TopicName {
		return nil
	}
	fields, err := topic.DecodeTokenFields(lockingScript)
	if err != nil {
		return fmt.Errorf("admitted output %s does not decode: %w", outpoint, err)
	}
	if err := s.store.Store(ctx, outpoint, fields.TokenId, util.AmountToString(fields.Amount), fields.CustomFields); err != nil {
		return err
	}
	log.Index.Debugf("stored %s token %s", outpoint, fields.TokenId)
	return nil
}

// OutputSpent removes a record the host reports as consumed by a later
// transaction. Notifications for other topics are ignored.
func (s *Service) OutputSpent(ctx context.Context, topicName string, outpoint *util.OutPoint) error {
	if topicName != constants.TopicName {
		return nil
	}
	return s.store.Delete(ctx, outpoint)
}

// OutputEvicted permanently removes a record regardless of topic or spend
// state.
func (s *Service) OutputEvicted(ctx context.Context, outpoint *util.OutPoint) error {
	return s.store.Delete(ctx, outpoint)
}

// Lookup answers a question by routing to the most specific matching index
// operation. Questions for a different service are rejected, never silently
// ignored.
func (s *Service) Lookup(ctx context.Context, question *Question) ([]*util.OutPoint, error) {
	if question.Service != constants.LookupServiceName {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, question.Service)
	}

	q := question.Query
	page := &index.Page{
		Limit:     q.Limit,
		Skip:      q.Skip,
		SortOrder: q.SortOrder,
		From:      q.From,
		To:        q.To,
	}

	switch {
	case q.Outpoint != "":
		outpoint := util.StringToOutpoint(q.Outpoint)
		if outpoint == nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedOutpoint, q.Outpoint)
		}
		record, err := s.store.FindByOutpoint(ctx, outpoint)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return []*util.OutPoint{}, nil
		}
		return []*util.OutPoint{record.Outpoint}, nil

	case q.TokenId != "":
		return s.store.FindByTokenId(ctx, q.TokenId, page)

	default:
		return s.store.FindAll(ctx, page)
	}
}

// FindByOutpoint exposes the full record point lookup for callers that need
// more than the outpoint projection.
func (s *Service) FindByOutpoint(ctx context.Context, outpoint *util.OutPoint) (*index.Record, error) {
	return s.store.FindByOutpoint(ctx, outpoint)
}
