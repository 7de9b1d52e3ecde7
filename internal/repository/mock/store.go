// Package mock provides an in-memory repository.Store for tests.
//
// Transactions are emulated by running the callback against a copy of every
// table while holding the store's lock; the copy replaces the live tables
// only when the callback succeeds. All transactions are therefore fully
// serialized, which is at least as strict as the PostgreSQL behaviour the
// services rely on.
package mock

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fanpost/kanva/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sqlc-dev/pqtype"
)

// Store is an in-memory repository.Store.
type Store struct {
	mu     sync.Mutex
	tables *tables
	fail   map[string]error

	// Now returns the time used for created_at/updated_at defaults.
	Now func() time.Time

	// TxCount counts committed and rolled back transactions.
	TxCount int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tables: newTables(),
		fail:   make(map[string]error),
		Now:    time.Now,
	}
}

// FailOn makes every call to method return err until cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, method)
		return
	}
	s.fail[method] = err
}

// ExecTx implements repository.Store.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fail["ExecTx"]; err != nil {
		return err
	}

	s.TxCount++
	work := s.tables.clone()
	if err := fn(&querier{s: s, t: work, inTx: true}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.tables = work
	return nil
}

func (s *Store) q() *querier {
	return &querier{s: s, t: s.tables}
}

var _ repository.Store = (*Store)(nil)

// =============================================================================
// Tables
// =============================================================================

type tables struct {
	seq          int64
	order        map[uuid.UUID]int64
	roles        map[uuid.UUID]repository.UserRole
	profiles     map[uuid.UUID]repository.Profile
	credits      map[uuid.UUID]repository.UserCredit
	transactions []repository.CreditTransaction
	slots        map[uuid.UUID]repository.UserTeamSlot
	templates    map[uuid.UUID]repository.Template
	jobs         map[uuid.UUID]repository.Job
}

func newTables() *tables {
	return &tables{
		order:     make(map[uuid.UUID]int64),
		roles:     make(map[uuid.UUID]repository.UserRole),
		profiles:  make(map[uuid.UUID]repository.Profile),
		credits:   make(map[uuid.UUID]repository.UserCredit),
		slots:     make(map[uuid.UUID]repository.UserTeamSlot),
		templates: make(map[uuid.UUID]repository.Template),
		jobs:      make(map[uuid.UUID]repository.Job),
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		seq:          t.seq,
		order:        make(map[uuid.UUID]int64, len(t.order)),
		roles:        make(map[uuid.UUID]repository.UserRole, len(t.roles)),
		profiles:     make(map[uuid.UUID]repository.Profile, len(t.profiles)),
		credits:      make(map[uuid.UUID]repository.UserCredit, len(t.credits)),
		transactions: append([]repository.CreditTransaction(nil), t.transactions...),
		slots:        make(map[uuid.UUID]repository.UserTeamSlot, len(t.slots)),
		templates:    make(map[uuid.UUID]repository.Template, len(t.templates)),
		jobs:         make(map[uuid.UUID]repository.Job, len(t.jobs)),
	}
	for k, v := range t.order {
		c.order[k] = v
	}
	for k, v := range t.roles {
		c.roles[k] = v
	}
	for k, v := range t.profiles {
		c.profiles[k] = v
	}
	for k, v := range t.credits {
		c.credits[k] = v
	}
	for k, v := range t.slots {
		c.slots[k] = v
	}
	for k, v := range t.templates {
		c.templates[k] = v
	}
	for k, v := range t.jobs {
		c.jobs[k] = v
	}
	return c
}

func (t *tables) newID() uuid.UUID {
	id := uuid.New()
	t.seq++
	t.order[id] = t.seq
	return id
}

// uniqueViolation mimics the error PostgreSQL returns for a duplicate key.
func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

// =============================================================================
// Query implementations (caller holds s.mu)
// =============================================================================

type querier struct {
	s    *Store
	t    *tables
	inTx bool
}

func (q *querier) err(method string) error {
	return q.s.fail[method]
}

func (q *querier) now() time.Time {
	return q.s.Now()
}

func (q *querier) LockOwner(ctx context.Context, key string) error {
	if err := q.err("LockOwner"); err != nil {
		return err
	}
	if !q.inTx {
		return errors.New("advisory transaction lock taken outside a transaction")
	}
	return nil
}

// ---- roles ----

func (q *querier) GetUserRole(ctx context.Context, userID uuid.UUID) (repository.UserRole, error) {
	if err := q.err("GetUserRole"); err != nil {
		return repository.UserRole{}, err
	}
	r, ok := q.t.roles[userID]
	if !ok {
		return repository.UserRole{}, sql.ErrNoRows
	}
	return r, nil
}

func (q *querier) UpsertUserRole(ctx context.Context, arg repository.UpsertUserRoleParams) (repository.UserRole, error) {
	if err := q.err("UpsertUserRole"); err != nil {
		return repository.UserRole{}, err
	}
	now := q.now()
	r, ok := q.t.roles[arg.UserID]
	if !ok {
		r = repository.UserRole{UserID: arg.UserID, CreatedAt: now}
	}
	r.Role = arg.Role
	r.UpdatedAt = now
	q.t.roles[arg.UserID] = r
	return r, nil
}

func (q *querier) ListRolesByUserIDs(ctx context.Context, ids []uuid.UUID) ([]repository.UserRole, error) {
	if err := q.err("ListRolesByUserIDs"); err != nil {
		return nil, err
	}
	var out []repository.UserRole
	for _, id := range ids {
		if r, ok := q.t.roles[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q *querier) DeleteUserRole(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := q.err("DeleteUserRole"); err != nil {
		return 0, err
	}
	if _, ok := q.t.roles[userID]; !ok {
		return 0, nil
	}
	delete(q.t.roles, userID)
	return 1, nil
}

// ---- profiles ----

func (q *querier) GetProfile(ctx context.Context, userID uuid.UUID) (repository.Profile, error) {
	if err := q.err("GetProfile"); err != nil {
		return repository.Profile{}, err
	}
	p, ok := q.t.profiles[userID]
	if !ok {
		return repository.Profile{}, sql.ErrNoRows
	}
	return p, nil
}

func (q *querier) GetProfileByStripeCustomerID(ctx context.Context, customerID sql.NullString) (repository.Profile, error) {
	if err := q.err("GetProfileByStripeCustomerID"); err != nil {
		return repository.Profile{}, err
	}
	if !customerID.Valid {
		return repository.Profile{}, sql.ErrNoRows
	}
	for _, p := range q.t.profiles {
		if p.StripeCustomerID.Valid && p.StripeCustomerID.String == customerID.String {
			return p, nil
		}
	}
	return repository.Profile{}, sql.ErrNoRows
}

func (q *querier) UpsertProfile(ctx context.Context, arg repository.UpsertProfileParams) (repository.Profile, error) {
	if err := q.err("UpsertProfile"); err != nil {
		return repository.Profile{}, err
	}
	now := q.now()
	p, ok := q.t.profiles[arg.UserID]
	if !ok {
		p = repository.Profile{UserID: arg.UserID, CreatedAt: now}
	}
	p.Email = arg.Email
	p.DisplayName = arg.DisplayName
	p.ClubName = arg.ClubName
	p.Language = arg.Language
	p.Theme = arg.Theme
	p.EmailNotifications = arg.EmailNotifications
	p.UpdatedAt = now
	q.t.profiles[arg.UserID] = p
	return p, nil
}

func (q *querier) SetStripeCustomerID(ctx context.Context, arg repository.SetStripeCustomerIDParams) error {
	if err := q.err("SetStripeCustomerID"); err != nil {
		return err
	}
	if arg.StripeCustomerID.Valid {
		for id, other := range q.t.profiles {
			if id != arg.UserID && other.StripeCustomerID == arg.StripeCustomerID {
				return uniqueViolation("profiles_stripe_customer_id_key")
			}
		}
	}
	now := q.now()
	p, ok := q.t.profiles[arg.UserID]
	if !ok {
		p = repository.Profile{UserID: arg.UserID, Email: arg.Email, Language: "de", Theme: "system", CreatedAt: now}
	}
	p.StripeCustomerID = arg.StripeCustomerID
	p.UpdatedAt = now
	q.t.profiles[arg.UserID] = p
	return nil
}

func (q *querier) ListSyncableProfiles(ctx context.Context) ([]repository.Profile, error) {
	if err := q.err("ListSyncableProfiles"); err != nil {
		return nil, err
	}
	var out []repository.Profile
	for _, p := range q.t.profiles {
		if !p.StripeCustomerID.Valid {
			continue
		}
		if r, ok := q.t.roles[p.UserID]; ok && r.Role == "admin" {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

func (q *querier) DeleteProfile(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := q.err("DeleteProfile"); err != nil {
		return 0, err
	}
	if _, ok := q.t.profiles[userID]; !ok {
		return 0, nil
	}
	delete(q.t.profiles, userID)
	return 1, nil
}

// ---- credits ----

func (q *querier) GetUserCredits(ctx context.Context, userID uuid.UUID) (repository.UserCredit, error) {
	if err := q.err("GetUserCredits"); err != nil {
		return repository.UserCredit{}, err
	}
	c, ok := q.t.credits[userID]
	if !ok {
		return repository.UserCredit{}, sql.ErrNoRows
	}
	return c, nil
}

// GetUserCreditsForUpdate needs no lock of its own: ExecTx already
// serializes transactions.
func (q *querier) GetUserCreditsForUpdate(ctx context.Context, userID uuid.UUID) (repository.UserCredit, error) {
	if err := q.err("GetUserCreditsForUpdate"); err != nil {
		return repository.UserCredit{}, err
	}
	return q.GetUserCredits(ctx, userID)
}

func (q *querier) ConsumeCredit(ctx context.Context, userID uuid.UUID) (repository.UserCredit, error) {
	if err := q.err("ConsumeCredit"); err != nil {
		return repository.UserCredit{}, err
	}
	c, ok := q.t.credits[userID]
	if !ok || c.CreditsRemaining <= 0 {
		return repository.UserCredit{}, sql.ErrNoRows
	}
	c.CreditsRemaining--
	c.UpdatedAt = q.now()
	q.t.credits[userID] = c
	return c, nil
}

func (q *querier) ProvisionUserCredits(ctx context.Context, arg repository.ProvisionUserCreditsParams) (repository.UserCredit, error) {
	if err := q.err("ProvisionUserCredits"); err != nil {
		return repository.UserCredit{}, err
	}
	if _, ok := q.t.credits[arg.UserID]; ok {
		return repository.UserCredit{}, sql.ErrNoRows
	}
	now := q.now()
	c := repository.UserCredit{
		UserID:           arg.UserID,
		CreditsRemaining: arg.CreditsRemaining,
		LastResetDate:    arg.LastResetDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	q.t.credits[arg.UserID] = c
	return c, nil
}

func (q *querier) ResetMonthlyCredits(ctx context.Context, arg repository.ResetMonthlyCreditsParams) (repository.UserCredit, error) {
	if err := q.err("ResetMonthlyCredits"); err != nil {
		return repository.UserCredit{}, err
	}
	c, ok := q.t.credits[arg.UserID]
	if !ok || !c.LastResetDate.Before(arg.MonthStart) {
		return repository.UserCredit{}, sql.ErrNoRows
	}
	if c.CreditsRemaining < arg.Allowance {
		c.CreditsRemaining = arg.Allowance
	}
	c.LastResetDate = arg.Now
	c.UpdatedAt = q.now()
	q.t.credits[arg.UserID] = c
	return c, nil
}

func (q *querier) GrantPurchasedCredits(ctx context.Context, arg repository.GrantPurchasedCreditsParams) (repository.UserCredit, error) {
	if err := q.err("GrantPurchasedCredits"); err != nil {
		return repository.UserCredit{}, err
	}
	c, ok := q.t.credits[arg.UserID]
	if !ok {
		return repository.UserCredit{}, sql.ErrNoRows
	}
	c.CreditsRemaining += arg.Amount
	c.CreditsPurchased += arg.Amount
	c.UpdatedAt = q.now()
	q.t.credits[arg.UserID] = c
	return c, nil
}

func (q *querier) DeleteUserCredits(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := q.err("DeleteUserCredits"); err != nil {
		return 0, err
	}
	if _, ok := q.t.credits[userID]; !ok {
		return 0, nil
	}
	delete(q.t.credits, userID)
	return 1, nil
}

func (q *querier) CreateCreditTransaction(ctx context.Context, arg repository.CreateCreditTransactionParams) (repository.CreditTransaction, error) {
	if err := q.err("CreateCreditTransaction"); err != nil {
		return repository.CreditTransaction{}, err
	}
	tx := repository.CreditTransaction{
		ID:          q.t.newID(),
		UserID:      arg.UserID,
		Amount:      arg.Amount,
		Kind:        arg.Kind,
		Description: arg.Description,
		Metadata:    cloneNullRaw(arg.Metadata),
		CreatedAt:   q.now(),
	}
	q.t.transactions = append(q.t.transactions, tx)
	return tx, nil
}

func (q *querier) ListCreditTransactions(ctx context.Context, arg repository.ListCreditTransactionsParams) ([]repository.CreditTransaction, error) {
	if err := q.err("ListCreditTransactions"); err != nil {
		return nil, err
	}
	var out []repository.CreditTransaction
	for i := len(q.t.transactions) - 1; i >= 0; i-- {
		tx := q.t.transactions[i]
		if tx.UserID != arg.UserID {
			continue
		}
		out = append(out, tx)
		if int32(len(out)) == arg.Limit {
			break
		}
	}
	return out, nil
}

func (q *querier) CreditTransactionExists(ctx context.Context, arg repository.CreditTransactionExistsParams) (bool, error) {
	if err := q.err("CreditTransactionExists"); err != nil {
		return false, err
	}
	for _, tx := range q.t.transactions {
		if tx.UserID != arg.UserID || tx.Kind != arg.Kind || !tx.Metadata.Valid {
			continue
		}
		var meta struct {
			Reference string `json:"reference"`
		}
		if json.Unmarshal(tx.Metadata.RawMessage, &meta) == nil && meta.Reference == arg.Reference {
			return true, nil
		}
	}
	return false, nil
}

func (q *querier) DeleteCreditTransactionsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := q.err("DeleteCreditTransactionsByUser"); err != nil {
		return 0, err
	}
	kept := q.t.transactions[:0:0]
	var n int64
	for _, tx := range q.t.transactions {
		if tx.UserID == userID {
			n++
			continue
		}
		kept = append(kept, tx)
	}
	q.t.transactions = kept
	return n, nil
}

// ---- team slots ----

func (q *querier) sortedSlots(userID uuid.UUID) []repository.UserTeamSlot {
	var out []repository.UserTeamSlot
	for _, s := range q.t.slots {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return q.t.order[out[i].ID] < q.t.order[out[j].ID]
	})
	return out
}

func (q *querier) ListTeamSlotsByUser(ctx context.Context, userID uuid.UUID) ([]repository.UserTeamSlot, error) {
	if err := q.err("ListTeamSlotsByUser"); err != nil {
		return nil, err
	}
	return q.sortedSlots(userID), nil
}

func (q *querier) CountTeamSlotsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := q.err("CountTeamSlotsByUser"); err != nil {
		return 0, err
	}
	return int64(len(q.sortedSlots(userID))), nil
}

func (q *querier) GetTeamSlotByUserAndTeam(ctx context.Context, arg repository.GetTeamSlotByUserAndTeamParams) (repository.UserTeamSlot, error) {
	if err := q.err("GetTeamSlotByUserAndTeam"); err != nil {
		return repository.UserTeamSlot{}, err
	}
	for _, s := range q.t.slots {
		if s.UserID == arg.UserID && s.TeamID == arg.TeamID {
			return s, nil
		}
	}
	return repository.UserTeamSlot{}, sql.ErrNoRows
}

func (q *querier) GetTeamSlotForUpdate(ctx context.Context, id uuid.UUID) (repository.UserTeamSlot, error) {
	if err := q.err("GetTeamSlotForUpdate"); err != nil {
		return repository.UserTeamSlot{}, err
	}
	s, ok := q.t.slots[id]
	if !ok {
		return repository.UserTeamSlot{}, sql.ErrNoRows
	}
	return s, nil
}

func (q *querier) InsertTeamSlot(ctx context.Context, arg repository.InsertTeamSlotParams) (repository.UserTeamSlot, error) {
	if err := q.err("InsertTeamSlot"); err != nil {
		return repository.UserTeamSlot{}, err
	}
	for id, s := range q.t.slots {
		if s.UserID == arg.UserID && s.TeamID == arg.TeamID {
			s.TeamName = arg.TeamName
			s.Sport = arg.Sport
			s.ClubID = arg.ClubID
			q.t.slots[id] = s
			return s, nil
		}
	}
	s := repository.UserTeamSlot{
		ID:            q.t.newID(),
		UserID:        arg.UserID,
		TeamID:        arg.TeamID,
		TeamName:      arg.TeamName,
		Sport:         arg.Sport,
		ClubID:        arg.ClubID,
		LastChangedAt: arg.LastChangedAt,
		CreatedAt:     q.now(),
	}
	q.t.slots[s.ID] = s
	return s, nil
}

func (q *querier) UpdateTeamSlotDetails(ctx context.Context, arg repository.UpdateTeamSlotDetailsParams) (repository.UserTeamSlot, error) {
	if err := q.err("UpdateTeamSlotDetails"); err != nil {
		return repository.UserTeamSlot{}, err
	}
	s, ok := q.t.slots[arg.ID]
	if !ok {
		return repository.UserTeamSlot{}, sql.ErrNoRows
	}
	s.TeamName = arg.TeamName
	s.Sport = arg.Sport
	s.ClubID = arg.ClubID
	q.t.slots[arg.ID] = s
	return s, nil
}

func (q *querier) RebindTeamSlot(ctx context.Context, arg repository.RebindTeamSlotParams) (repository.UserTeamSlot, error) {
	if err := q.err("RebindTeamSlot"); err != nil {
		return repository.UserTeamSlot{}, err
	}
	s, ok := q.t.slots[arg.ID]
	if !ok {
		return repository.UserTeamSlot{}, sql.ErrNoRows
	}
	for id, other := range q.t.slots {
		if id != arg.ID && other.UserID == s.UserID && other.TeamID == arg.TeamID {
			return repository.UserTeamSlot{}, uniqueViolation("user_team_slots_user_team_key")
		}
	}
	s.TeamID = arg.TeamID
	s.TeamName = arg.TeamName
	s.Sport = arg.Sport
	s.ClubID = arg.ClubID
	s.LastChangedAt = arg.LastChangedAt
	q.t.slots[arg.ID] = s
	return s, nil
}

func (q *querier) DeleteTeamSlot(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := q.err("DeleteTeamSlot"); err != nil {
		return 0, err
	}
	if _, ok := q.t.slots[id]; !ok {
		return 0, nil
	}
	delete(q.t.slots, id)
	return 1, nil
}

func (q *querier) DeleteTeamSlotsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := q.err("DeleteTeamSlotsByUser"); err != nil {
		return 0, err
	}
	var n int64
	for id, s := range q.t.slots {
		if s.UserID == userID {
			delete(q.t.slots, id)
			n++
		}
	}
	return n, nil
}

// ---- templates ----

func (q *querier) CreateTemplate(ctx context.Context, arg repository.CreateTemplateParams) (repository.Template, error) {
	if err := q.err("CreateTemplate"); err != nil {
		return repository.Template{}, err
	}
	now := q.now()
	t := repository.Template{
		ID:            q.t.newID(),
		UserID:        arg.UserID,
		Name:          arg.Name,
		Kind:          arg.Kind,
		Data:          cloneRaw(arg.Data),
		SchemaVersion: arg.SchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	q.t.templates[t.ID] = t
	return t, nil
}

func (q *querier) GetTemplateByID(ctx context.Context, id uuid.UUID) (repository.Template, error) {
	if err := q.err("GetTemplateByID"); err != nil {
		return repository.Template{}, err
	}
	t, ok := q.t.templates[id]
	if !ok {
		return repository.Template{}, sql.ErrNoRows
	}
	return t, nil
}

func (q *querier) ListTemplatesByUser(ctx context.Context, userID uuid.UUID) ([]repository.Template, error) {
	if err := q.err("ListTemplatesByUser"); err != nil {
		return nil, err
	}
	var out []repository.Template
	for _, t := range q.t.templates {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return q.t.order[out[i].ID] > q.t.order[out[j].ID]
	})
	return out, nil
}

func (q *querier) UpdateTemplate(ctx context.Context, arg repository.UpdateTemplateParams) (repository.Template, error) {
	if err := q.err("UpdateTemplate"); err != nil {
		return repository.Template{}, err
	}
	t, ok := q.t.templates[arg.ID]
	if !ok || t.UserID != arg.UserID {
		return repository.Template{}, sql.ErrNoRows
	}
	t.Name = arg.Name
	t.Kind = arg.Kind
	t.Data = cloneRaw(arg.Data)
	t.SchemaVersion = arg.SchemaVersion
	t.UpdatedAt = q.now()
	q.t.templates[arg.ID] = t
	return t, nil
}

func (q *querier) DeleteTemplate(ctx context.Context, arg repository.DeleteTemplateParams) (int64, error) {
	if err := q.err("DeleteTemplate"); err != nil {
		return 0, err
	}
	t, ok := q.t.templates[arg.ID]
	if !ok || t.UserID != arg.UserID {
		return 0, nil
	}
	delete(q.t.templates, arg.ID)
	return 1, nil
}

func (q *querier) DeleteTemplatesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := q.err("DeleteTemplatesByUser"); err != nil {
		return 0, err
	}
	var n int64
	for id, t := range q.t.templates {
		if t.UserID == userID {
			delete(q.t.templates, id)
			n++
		}
	}
	return n, nil
}

func (q *querier) ListTemplatesBelowSchema(ctx context.Context, arg repository.ListTemplatesBelowSchemaParams) ([]repository.Template, error) {
	if err := q.err("ListTemplatesBelowSchema"); err != nil {
		return nil, err
	}
	var out []repository.Template
	for _, t := range q.t.templates {
		if t.SchemaVersion < arg.SchemaVersion && bytes.Compare(t.ID[:], arg.AfterID[:]) > 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	if int32(len(out)) > arg.Limit {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (q *querier) MigrateTemplateData(ctx context.Context, arg repository.MigrateTemplateDataParams) (int64, error) {
	if err := q.err("MigrateTemplateData"); err != nil {
		return 0, err
	}
	t, ok := q.t.templates[arg.ID]
	if !ok || t.SchemaVersion >= arg.SchemaVersion {
		return 0, nil
	}
	t.LegacyData = pqtype.NullRawMessage{RawMessage: cloneRaw(t.Data), Valid: true}
	t.Data = cloneRaw(arg.Data)
	t.SchemaVersion = arg.SchemaVersion
	t.UpdatedAt = q.now()
	q.t.templates[arg.ID] = t
	return 1, nil
}

// ---- jobs ----

func (q *querier) EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error) {
	if err := q.err("EnqueueJob"); err != nil {
		return repository.Job{}, err
	}
	j := repository.Job{
		ID:          q.t.newID(),
		JobType:     arg.JobType,
		Payload:     cloneRaw(arg.Payload),
		Status:      "pending",
		Priority:    arg.Priority,
		MaxAttempts: arg.MaxAttempts,
		ScheduledAt: arg.ScheduledAt,
		CreatedAt:   q.now(),
	}
	q.t.jobs[j.ID] = j
	return j, nil
}

func (q *querier) DequeueJob(ctx context.Context) (repository.Job, error) {
	if err := q.err("DequeueJob"); err != nil {
		return repository.Job{}, err
	}
	now := q.now()
	var best *repository.Job
	for _, j := range q.t.jobs {
		if j.Status != "pending" || j.ScheduledAt.After(now) {
			continue
		}
		if best == nil || j.Priority > best.Priority ||
			(j.Priority == best.Priority && j.ScheduledAt.Before(best.ScheduledAt)) {
			j := j
			best = &j
		}
	}
	if best == nil {
		return repository.Job{}, sql.ErrNoRows
	}
	return *best, nil
}

func (q *querier) UpdateJobStarted(ctx context.Context, id uuid.UUID) error {
	if err := q.err("UpdateJobStarted"); err != nil {
		return err
	}
	j, ok := q.t.jobs[id]
	if !ok {
		return nil
	}
	j.Status = "running"
	j.StartedAt = sql.NullTime{Time: q.now(), Valid: true}
	j.Attempts++
	q.t.jobs[id] = j
	return nil
}

func (q *querier) UpdateJobCompleted(ctx context.Context, id uuid.UUID) error {
	if err := q.err("UpdateJobCompleted"); err != nil {
		return err
	}
	j, ok := q.t.jobs[id]
	if !ok {
		return nil
	}
	j.Status = "completed"
	j.CompletedAt = sql.NullTime{Time: q.now(), Valid: true}
	j.ErrorMessage = sql.NullString{}
	q.t.jobs[id] = j
	return nil
}

func (q *querier) UpdateJobFailed(ctx context.Context, arg repository.UpdateJobFailedParams) error {
	if err := q.err("UpdateJobFailed"); err != nil {
		return err
	}
	j, ok := q.t.jobs[arg.ID]
	if !ok {
		return nil
	}
	j.ErrorMessage = arg.ErrorMessage
	if arg.Permanent || j.Attempts >= j.MaxAttempts {
		j.Status = "failed"
		j.CompletedAt = sql.NullTime{Time: q.now(), Valid: true}
	} else {
		j.Status = "pending"
		j.ScheduledAt = q.now().Add(time.Duration(1<<uint(j.Attempts)) * 30 * time.Second)
	}
	q.t.jobs[arg.ID] = j
	return nil
}

func (q *querier) RecoverStaleJobs(ctx context.Context, secs float64) (int64, error) {
	if err := q.err("RecoverStaleJobs"); err != nil {
		return 0, err
	}
	threshold := q.now().Add(-time.Duration(secs * float64(time.Second)))
	var n int64
	for id, j := range q.t.jobs {
		if j.Status == "running" && j.StartedAt.Valid && j.StartedAt.Time.Before(threshold) {
			j.Status = "pending"
			j.StartedAt = sql.NullTime{}
			q.t.jobs[id] = j
			n++
		}
	}
	return n, nil
}

func (q *querier) CountPendingJobs(ctx context.Context) (int64, error) {
	if err := q.err("CountPendingJobs"); err != nil {
		return 0, err
	}
	var n int64
	for _, j := range q.t.jobs {
		if j.Status == "pending" {
			n++
		}
	}
	return n, nil
}

// Jobs returns every job of the given type, in enqueue order.
func (s *Store) Jobs(jobType string) []repository.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Job
	for _, j := range s.tables.jobs {
		if j.JobType == jobType {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return s.tables.order[out[i].ID] < s.tables.order[out[k].ID] })
	return out
}

func cloneRaw(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	return append(json.RawMessage(nil), b...)
}

func cloneNullRaw(n pqtype.NullRawMessage) pqtype.NullRawMessage {
	return pqtype.NullRawMessage{RawMessage: cloneRaw(n.RawMessage), Valid: n.Valid}
}

var _ repository.Querier = (*querier)(nil)
