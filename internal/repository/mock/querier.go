package mock

import (
	"context"
	"database/sql"

	"github.com/fanpost/kanva/internal/repository"
	"github.com/google/uuid"
)

// Non-transactional calls run against the live tables under the store lock.

func (s *Store) ConsumeCredit(ctx context.Context, userID uuid.UUID) (repository.UserCredit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ConsumeCredit(ctx, userID)
}

func (s *Store) CountPendingJobs(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().CountPendingJobs(ctx)
}

func (s *Store) CountTeamSlotsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().CountTeamSlotsByUser(ctx, userID)
}

func (s *Store) CreateCreditTransaction(ctx context.Context, arg repository.CreateCreditTransactionParams) (repository.CreditTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().CreateCreditTransaction(ctx, arg)
}

func (s *Store) CreateTemplate(ctx context.Context, arg repository.CreateTemplateParams) (repository.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().CreateTemplate(ctx, arg)
}

func (s *Store) CreditTransactionExists(ctx context.Context, arg repository.CreditTransactionExistsParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().CreditTransactionExists(ctx, arg)
}

func (s *Store) DeleteCreditTransactionsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteCreditTransactionsByUser(ctx, userID)
}

func (s *Store) DeleteProfile(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteProfile(ctx, userID)
}

func (s *Store) DeleteTeamSlot(ctx context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteTeamSlot(ctx, id)
}

func (s *Store) DeleteTeamSlotsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteTeamSlotsByUser(ctx, userID)
}

func (s *Store) DeleteTemplate(ctx context.Context, arg repository.DeleteTemplateParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteTemplate(ctx, arg)
}

func (s *Store) DeleteTemplatesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteTemplatesByUser(ctx, userID)
}

func (s *Store) DeleteUserCredits(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteUserCredits(ctx, userID)
}

func (s *Store) DeleteUserRole(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DeleteUserRole(ctx, userID)
}

func (s *Store) DequeueJob(ctx context.Context) (repository.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().DequeueJob(ctx)
}

func (s *Store) EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().EnqueueJob(ctx, arg)
}

func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (repository.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetProfile(ctx, userID)
}

func (s *Store) GetProfileByStripeCustomerID(ctx context.Context, stripeCustomerID sql.NullString) (repository.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetProfileByStripeCustomerID(ctx, stripeCustomerID)
}

func (s *Store) GetTeamSlotByUserAndTeam(ctx context.Context, arg repository.GetTeamSlotByUserAndTeamParams) (repository.UserTeamSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetTeamSlotByUserAndTeam(ctx, arg)
}

func (s *Store) GetTeamSlotForUpdate(ctx context.Context, id uuid.UUID) (repository.UserTeamSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetTeamSlotForUpdate(ctx, id)
}

func (s *Store) GetTemplateByID(ctx context.Context, id uuid.UUID) (repository.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetTemplateByID(ctx, id)
}

func (s *Store) GetUserCredits(ctx context.Context, userID uuid.UUID) (repository.UserCredit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetUserCredits(ctx, userID)
}

func (s *Store) GetUserCreditsForUpdate(ctx context.Context, userID uuid.UUID) (repository.UserCredit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetUserCreditsForUpdate(ctx, userID)
}

func (s *Store) GetUserRole(ctx context.Context, userID uuid.UUID) (repository.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GetUserRole(ctx, userID)
}

func (s *Store) GrantPurchasedCredits(ctx context.Context, arg repository.GrantPurchasedCreditsParams) (repository.UserCredit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().GrantPurchasedCredits(ctx, arg)
}

func (s *Store) InsertTeamSlot(ctx context.Context, arg repository.InsertTeamSlotParams) (repository.UserTeamSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().InsertTeamSlot(ctx, arg)
}

func (s *Store) ListCreditTransactions(ctx context.Context, arg repository.ListCreditTransactionsParams) ([]repository.CreditTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ListCreditTransactions(ctx, arg)
}

func (s *Store) ListRolesByUserIDs(ctx context.Context, ids []uuid.UUID) ([]repository.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ListRolesByUserIDs(ctx, ids)
}

func (s *Store) ListSyncableProfiles(ctx context.Context) ([]repository.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ListSyncableProfiles(ctx)
}

func (s *Store) ListTeamSlotsByUser(ctx context.Context, userID uuid.UUID) ([]repository.UserTeamSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ListTeamSlotsByUser(ctx, userID)
}

func (s *Store) ListTemplatesBelowSchema(ctx context.Context, arg repository.ListTemplatesBelowSchemaParams) ([]repository.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ListTemplatesBelowSchema(ctx, arg)
}

func (s *Store) ListTemplatesByUser(ctx context.Context, userID uuid.UUID) ([]repository.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ListTemplatesByUser(ctx, userID)
}

func (s *Store) LockOwner(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().LockOwner(ctx, key)
}

func (s *Store) MigrateTemplateData(ctx context.Context, arg repository.MigrateTemplateDataParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().MigrateTemplateData(ctx, arg)
}

func (s *Store) ProvisionUserCredits(ctx context.Context, arg repository.ProvisionUserCreditsParams) (repository.UserCredit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ProvisionUserCredits(ctx, arg)
}

func (s *Store) RebindTeamSlot(ctx context.Context, arg repository.RebindTeamSlotParams) (repository.UserTeamSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().RebindTeamSlot(ctx, arg)
}

func (s *Store) RecoverStaleJobs(ctx context.Context, secs float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().RecoverStaleJobs(ctx, secs)
}

func (s *Store) ResetMonthlyCredits(ctx context.Context, arg repository.ResetMonthlyCreditsParams) (repository.UserCredit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().ResetMonthlyCredits(ctx, arg)
}

func (s *Store) SetStripeCustomerID(ctx context.Context, arg repository.SetStripeCustomerIDParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().SetStripeCustomerID(ctx, arg)
}

func (s *Store) UpdateJobCompleted(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().UpdateJobCompleted(ctx, id)
}

func (s *Store) UpdateJobFailed(ctx context.Context, arg repository.UpdateJobFailedParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().UpdateJobFailed(ctx, arg)
}

func (s *Store) UpdateJobStarted(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().UpdateJobStarted(ctx, id)
}

func (s *Store) UpdateTeamSlotDetails(ctx context.Context, arg repository.UpdateTeamSlotDetailsParams) (repository.UserTeamSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().UpdateTeamSlotDetails(ctx, arg)
}

func (s *Store) UpdateTemplate(ctx context.Context, arg repository.UpdateTemplateParams) (repository.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().UpdateTemplate(ctx, arg)
}

func (s *Store) UpsertProfile(ctx context.Context, arg repository.UpsertProfileParams) (repository.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().UpsertProfile(ctx, arg)
}

func (s *Store) UpsertUserRole(ctx context.Context, arg repository.UpsertUserRoleParams) (repository.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().UpsertUserRole(ctx, arg)
}
