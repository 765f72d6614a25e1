package memory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"tender_award/internal/access"
	"tender_award/internal/models/offer"
	"tender_award/internal/models/tender"
)

// Stable failure kinds surfaced to the handlers. Every rejected call wraps
// exactly one of these plus a human-readable reason.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDeadlineViolation = errors.New("deadline violation")
	ErrAlreadyExists     = errors.New("already exists")
)

// tenderRecord bundles a tender with its offers and participant list under a
// single mutex, so every mutation of one tender is serialized and every read
// sees a consistent snapshot. Participants keeps strict submission order; it
// is the source of truth for evaluation completeness and tie-breaking.
type tenderRecord struct {
	mu           sync.Mutex
	tender       tender.Tender
	offers       map[string]*offer.Offer
	participants []string
}

// Storage is the in-memory entity store. Tenders and offers are append-only:
// nothing is ever deleted, a Finalized tender simply accepts no further
// writes.
type Storage struct {
	mu      sync.RWMutex
	acl     *access.Control
	tenders map[int64]*tenderRecord
	nextID  int64
	now     func() time.Time
}

func New(acl *access.Control) *Storage {
	return NewWithClock(acl, time.Now)
}

// NewWithClock injects the time source used for deadline comparisons.
func NewWithClock(acl *access.Control, now func() time.Time) *Storage {
	return &Storage{
		acl:     acl,
		tenders: make(map[int64]*tenderRecord),
		nextID:  1,
		now:     now,
	}
}

func (s *Storage) SaveTender(caller string, req tender.TenderRequest) (tender.TenderResponse, error) {
	const op = "storage.memory.SaveTender"

	if !s.acl.Authorize(caller, access.OpManageTender) {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: only the authority may create tenders", op, ErrUnauthorized)
	}
	if req.Description == "" {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: the description is empty", op, ErrInvalidInput)
	}
	if req.MaxPrice <= 0 {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: maxPrice must be positive", op, ErrInvalidInput)
	}
	if req.DeadlineDays <= 0 {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: deadlineDays must be positive", op, ErrInvalidInput)
	}
	if req.WeightPrice < 0 || req.WeightPrice > 100 || req.WeightQuality < 0 || req.WeightQuality > 100 ||
		req.WeightPrice+req.WeightQuality != 100 {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: the weights must sum to 100", op, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now()
	ten := tender.Tender{
		ID:            s.nextID,
		Creator:       caller,
		Description:   req.Description,
		MaxPrice:      req.MaxPrice,
		Deadline:      createdAt.Add(time.Duration(req.DeadlineDays) * 24 * time.Hour),
		WeightPrice:   req.WeightPrice,
		WeightQuality: req.WeightQuality,
		Status:        tender.StatusOpen,
		CreatedAt:     createdAt,
	}
	s.tenders[ten.ID] = &tenderRecord{
		tender: ten,
		offers: make(map[string]*offer.Offer),
	}
	s.nextID++

	return tenderResponse(ten), nil
}

func (s *Storage) ReadTender(tenderID int64) (tender.TenderResponse, error) {
	const op = "storage.memory.ReadTender"

	rec, err := s.record(tenderID)
	if err != nil {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return tenderResponse(rec.tender), nil
}

func (s *Storage) SaveOffer(caller string, req offer.OfferRequest) (offer.OfferResponse, error) {
	const op = "storage.memory.SaveOffer"

	if !s.acl.Authorize(caller, access.OpSubmit) {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: the provider identity is empty", op, ErrUnauthorized)
	}

	rec, err := s.record(req.TenderID)
	if err != nil {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.tender.Status != tender.StatusOpen {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: the tender is not open for offers", op, ErrInvalidState)
	}
	if s.now().After(rec.tender.Deadline) {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: the submission deadline has passed", op, ErrDeadlineViolation)
	}
	if req.Price <= 0 {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: the price must be positive", op, ErrInvalidInput)
	}
	if req.Price > rec.tender.MaxPrice {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: the price exceeds the tender maximum", op, ErrInvalidInput)
	}
	if req.DocumentationRef == "" {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: the documentation reference is empty", op, ErrInvalidInput)
	}
	if _, ok := rec.offers[caller]; ok {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: an offer from this provider already exists", op, ErrAlreadyExists)
	}

	// Offer storage and participant append happen under the same lock so
	// both become visible atomically.
	off := &offer.Offer{
		Provider:         caller,
		Price:            req.Price,
		DocumentationRef: req.DocumentationRef,
		SubmittedAt:      s.now(),
	}
	rec.offers[caller] = off
	rec.participants = append(rec.participants, caller)

	return offerResponse(req.TenderID, *off), nil
}

func (s *Storage) CloseOfferPeriod(caller string, tenderID int64) (tender.TenderResponse, error) {
	const op = "storage.memory.CloseOfferPeriod"

	if !s.acl.Authorize(caller, access.OpManageTender) {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: only the authority may close the offer period", op, ErrUnauthorized)
	}

	rec, err := s.record(tenderID)
	if err != nil {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.tender.Status != tender.StatusOpen {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: the tender is not open", op, ErrInvalidState)
	}
	if !s.now().After(rec.tender.Deadline) {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: the submission deadline has not passed yet", op, ErrDeadlineViolation)
	}
	if len(rec.participants) == 0 {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: no offers were submitted", op, ErrInvalidInput)
	}

	rec.tender.Status = tender.StatusClosed

	return tenderResponse(rec.tender), nil
}

func (s *Storage) EvaluateOffer(caller string, tenderID int64, provider string, qualityScore int64) (offer.OfferResponse, error) {
	const op = "storage.memory.EvaluateOffer"

	if !s.acl.Authorize(caller, access.OpEvaluate) {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: only a registered evaluator may score offers", op, ErrUnauthorized)
	}

	rec, err := s.record(tenderID)
	if err != nil {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.tender.Status != tender.StatusClosed {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: the tender is not closed for evaluation", op, ErrInvalidState)
	}
	if qualityScore < 0 || qualityScore > 100 {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: the quality score must be between 0 and 100", op, ErrInvalidInput)
	}

	off, ok := rec.offers[provider]
	if !ok {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: no offer from this provider", op, ErrNotFound)
	}
	if off.Evaluated {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: the offer is already evaluated", op, ErrAlreadyExists)
	}

	off.QualityScore = qualityScore
	off.Evaluated = true

	return offerResponse(tenderID, *off), nil
}

func (s *Storage) MarkAsEvaluated(caller string, tenderID int64) (tender.TenderResponse, error) {
	const op = "storage.memory.MarkAsEvaluated"

	if !s.acl.Authorize(caller, access.OpManageTender) {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: only the authority may advance the tender", op, ErrUnauthorized)
	}

	rec, err := s.record(tenderID)
	if err != nil {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.tender.Status != tender.StatusClosed {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: the tender is not closed", op, ErrInvalidState)
	}
	if len(rec.participants) == 0 {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: the tender has no participants", op, ErrInvalidState)
	}

	// Walk the whole participant list; completeness must hold offer by
	// offer, not by count.
	unevaluated := 0
	for _, provider := range rec.participants {
		off, ok := rec.offers[provider]
		if !ok || !off.Evaluated {
			unevaluated++
		}
	}
	if unevaluated > 0 {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: not all offers are evaluated", op, ErrInvalidInput)
	}

	rec.tender.Status = tender.StatusEvaluated

	return tenderResponse(rec.tender), nil
}

func (s *Storage) CalculateWinner(caller string, tenderID int64) (tender.TenderResponse, error) {
	const op = "storage.memory.CalculateWinner"

	if !s.acl.Authorize(caller, access.OpManageTender) {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: only the authority may select the winner", op, ErrUnauthorized)
	}

	rec, err := s.record(tenderID)
	if err != nil {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.tender.Status == tender.StatusFinalized || rec.tender.Winner != "" {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: the winner is already calculated", op, ErrAlreadyExists)
	}
	if rec.tender.Status != tender.StatusEvaluated {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: the tender is not fully evaluated", op, ErrInvalidState)
	}

	winner := selectWinner(rec.tender, rec.participants, rec.offers)
	if winner == "" {
		return tender.TenderResponse{}, fmt.Errorf("%s: %w: no valid winner", op, ErrInvalidState)
	}

	// The single irreversible write of the lifecycle.
	rec.tender.Winner = winner
	rec.tender.Status = tender.StatusFinalized

	return tenderResponse(rec.tender), nil
}

func (s *Storage) ReadOffer(tenderID int64, provider string) (offer.OfferResponse, error) {
	const op = "storage.memory.ReadOffer"

	rec, err := s.record(tenderID)
	if err != nil {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	off, ok := rec.offers[provider]
	if !ok {
		return offer.OfferResponse{}, fmt.Errorf("%s: %w: no offer from this provider", op, ErrNotFound)
	}

	return offerResponse(tenderID, *off), nil
}

func (s *Storage) ReadOffers(tenderID int64) (offer.OfferListResponse, error) {
	const op = "storage.memory.ReadOffers"

	rec, err := s.record(tenderID)
	if err != nil {
		return offer.OfferListResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	result := offer.OfferListResponse{
		Providers:      make([]string, 0, len(rec.participants)),
		Prices:         make([]int64, 0, len(rec.participants)),
		QualityScores:  make([]int64, 0, len(rec.participants)),
		CombinedScores: make([]int64, 0, len(rec.participants)),
	}
	for _, provider := range rec.participants {
		off := rec.offers[provider]

		var combined int64
		if off.Evaluated {
			combined = combinedScore(
				priceScore(rec.tender.MaxPrice, off.Price),
				off.QualityScore,
				rec.tender.WeightPrice,
				rec.tender.WeightQuality,
			)
		}

		result.Providers = append(result.Providers, provider)
		result.Prices = append(result.Prices, off.Price)
		result.QualityScores = append(result.QualityScores, off.QualityScore)
		result.CombinedScores = append(result.CombinedScores, combined)
	}

	return result, nil
}

func (s *Storage) ReadParticipants(tenderID int64) ([]string, error) {
	const op = "storage.memory.ReadParticipants"

	rec, err := s.record(tenderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	participants := make([]string, len(rec.participants))
	copy(participants, rec.participants)

	return participants, nil
}

func (s *Storage) AddEvaluator(caller, addr string) error {
	const op = "storage.memory.AddEvaluator"

	if !s.acl.Authorize(caller, access.OpManageTender) {
		return fmt.Errorf("%s: %w: only the authority may manage evaluators", op, ErrUnauthorized)
	}
	if addr == "" {
		return fmt.Errorf("%s: %w: the evaluator identity is empty", op, ErrInvalidInput)
	}
	if !s.acl.AddEvaluator(addr) {
		return fmt.Errorf("%s: %w: the identity is already an evaluator", op, ErrAlreadyExists)
	}

	return nil
}

func (s *Storage) RemoveEvaluator(caller, addr string) error {
	const op = "storage.memory.RemoveEvaluator"

	if !s.acl.Authorize(caller, access.OpManageTender) {
		return fmt.Errorf("%s: %w: only the authority may manage evaluators", op, ErrUnauthorized)
	}
	if !s.acl.RemoveEvaluator(addr) {
		return fmt.Errorf("%s: %w: the identity is not an evaluator", op, ErrNotFound)
	}

	return nil
}

func (s *Storage) IsEvaluator(addr string) bool {
	return s.acl.IsEvaluator(addr)
}

func (s *Storage) CurrentAuthority() string {
	return s.acl.CurrentAuthority()
}

func (s *Storage) TransferAuthority(caller, newAuthority string) error {
	const op = "storage.memory.TransferAuthority"

	if !s.acl.Authorize(caller, access.OpManageTender) {
		return fmt.Errorf("%s: %w: only the authority may transfer authority", op, ErrUnauthorized)
	}
	if newAuthority == "" {
		return fmt.Errorf("%s: %w: the new authority identity is empty", op, ErrInvalidInput)
	}

	s.acl.TransferAuthority(newAuthority)

	return nil
}

func (s *Storage) record(tenderID int64) (*tenderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tenders[tenderID]
	if !ok {
		return nil, fmt.Errorf("%w: no tender with this id", ErrNotFound)
	}

	return rec, nil
}

func tenderResponse(ten tender.Tender) tender.TenderResponse {
	return tender.TenderResponse{
		ID:            ten.ID,
		Creator:       ten.Creator,
		Description:   ten.Description,
		MaxPrice:      ten.MaxPrice,
		Deadline:      ten.Deadline,
		WeightPrice:   ten.WeightPrice,
		WeightQuality: ten.WeightQuality,
		Status:        ten.Status,
		Winner:        ten.Winner,
		CreatedAt:     ten.CreatedAt,
	}
}

func offerResponse(tenderID int64, off offer.Offer) offer.OfferResponse {
	return offer.OfferResponse{
		TenderID:         tenderID,
		Provider:         off.Provider,
		Price:            off.Price,
		DocumentationRef: off.DocumentationRef,
		QualityScore:     off.QualityScore,
		Evaluated:        off.Evaluated,
		SubmittedAt:      off.SubmittedAt,
	}
}
