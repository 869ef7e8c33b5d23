package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/billbatista/acasinha-splits/eventlogger"
	"github.com/billbatista/acasinha-splits/split"
	"github.com/google/uuid"
)

// Service resolves group membership and runs every group mutation through
// the store. The caller's user id always comes from the identity layer.
type Service struct {
	store     Store
	directory Directory
	events    EventSink
}

func NewService(store Store, directory Directory, events EventSink) *Service {
	if events == nil {
		events = discardSink{}
	}
	return &Service{
		store:     store,
		directory: directory,
		events:    events,
	}
}

func (s *Service) emit(eventType string, groupID, userID uuid.UUID, data any) {
	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventType),
		eventlogger.WithData(data),
		eventlogger.WithMetadata(map[string]string{
			"group_id": groupID.String(),
			"user_id":  userID.String(),
		}),
	))
}

// emitPersonal is emit for events that belong to a user rather than a group.
func (s *Service) emitPersonal(eventType string, userID uuid.UUID, data any) {
	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventType),
		eventlogger.WithData(data),
		eventlogger.WithMetadata(map[string]string{"user_id": userID.String()}),
	))
}

// authorize loads the group and the caller's membership in it.
func (s *Service) authorize(ctx context.Context, groupID, userID uuid.UUID) (*Group, *Membership, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, storeErr("loading group", err)
	}
	if group == nil {
		return nil, nil, ErrGroupNotFound
	}

	membership, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, nil, storeErr("loading membership", err)
	}
	if membership == nil {
		return nil, nil, ErrNotMember
	}
	return group, membership, nil
}

func (s *Service) authorizeAdmin(ctx context.Context, groupID, userID uuid.UUID) (*Group, error) {
	group, membership, err := s.authorize(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !membership.Role.CanManageGroup() {
		return nil, ErrNotAdmin
	}
	return group, nil
}

// CreateGroup creates a group with the caller as its only member and admin.
func (s *Service) CreateGroup(ctx context.Context, userID uuid.UUID, name, currency string) (*Group, error) {
	group, err := NewGroup(name, currency, userID)
	if err != nil {
		return nil, err
	}

	admin := Membership{
		GroupID:  group.ID,
		UserID:   userID,
		Role:     RoleAdmin,
		JoinedAt: group.CreatedAt,
	}
	if err := s.store.CreateGroup(ctx, group, admin); err != nil {
		return nil, storeErr("creating group", err)
	}

	s.emit(EventGroupCreated, group.ID, userID, GroupCreatedEvent{
		Name:      group.Name,
		Currency:  group.Currency,
		CreatedBy: userID.String(),
		CreatedAt: group.CreatedAt,
	})
	return &group, nil
}

func (s *Service) Groups(ctx context.Context, userID uuid.UUID) ([]Group, error) {
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, storeErr("listing groups", err)
	}
	return groups, nil
}

func (s *Service) Group(ctx context.Context, userID, groupID uuid.UUID) (*Group, error) {
	group, _, err := s.authorize(ctx, groupID, userID)
	return group, err
}

func (s *Service) Members(ctx context.Context, userID, groupID uuid.UUID) ([]Member, error) {
	if _, _, err := s.authorize(ctx, groupID, userID); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, storeErr("listing members", err)
	}
	return members, nil
}

// RenameGroup is restricted to admins.
func (s *Service) RenameGroup(ctx context.Context, userID, groupID uuid.UUID, name string) (*Group, error) {
	group, err := s.authorizeAdmin(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	if err := s.store.UpdateGroupName(ctx, groupID, name); err != nil {
		return nil, storeErr("renaming group", err)
	}
	group.Name = name

	s.emit(EventGroupRenamed, groupID, userID, GroupRenamedEvent{Name: name})
	return group, nil
}

// AddMemberByEmail adds a registered user to the group as a MEMBER. Adding
// someone who is already in the group returns their membership with added
// set to false.
func (s *Service) AddMemberByEmail(ctx context.Context, userID, groupID uuid.UUID, email string) (membership *Membership, added bool, err error) {
	if _, err := s.authorizeAdmin(ctx, groupID, userID); err != nil {
		return nil, false, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, ErrEmptyEmail
	}

	person, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, storeErr("looking up user", err)
	}
	if person == nil {
		return nil, false, ErrUserNotFound
	}

	existing, err := s.store.GetMembership(ctx, groupID, person.ID)
	if err != nil {
		return nil, false, storeErr("loading membership", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	m := Membership{
		GroupID:  groupID,
		UserID:   person.ID,
		Role:     RoleMember,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.store.CreateMembership(ctx, m); err != nil {
		return nil, false, storeErr("adding member", err)
	}

	s.emit(EventMemberAdded, groupID, userID, MemberAddedEvent{
		UserID: person.ID.String(),
		Email:  email,
		Role:   m.Role,
	})
	return &m, true, nil
}

// participants returns the group members in split order and checks the payer
// is one of them.
func (s *Service) participants(ctx context.Context, groupID, payer uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, storeErr("listing members", err)
	}
	ids := memberIDs(members)
	for _, id := range ids {
		if id == payer {
			return ids, nil
		}
	}
	return nil, ErrPayerNotMember
}

func (s *Service) categoryName(ctx context.Context, categoryID *uuid.UUID) (string, error) {
	if categoryID == nil {
		return "", nil
	}
	name, err := s.store.CategoryName(ctx, *categoryID)
	if err != nil {
		return "", storeErr("resolving category", err)
	}
	return name, nil
}

// AddExpense records an expense paid by in.PaidBy (the caller when unset)
// and splits it between all group members.
func (s *Service) AddExpense(ctx context.Context, userID, groupID uuid.UUID, in ExpenseInput) (*Expense, *split.FallbackWarning, error) {
	if _, _, err := s.authorize(ctx, groupID, userID); err != nil {
		return nil, nil, err
	}

	if in.PaidBy == uuid.Nil {
		in.PaidBy = userID
	}
	ids, err := s.participants(ctx, groupID, in.PaidBy)
	if err != nil {
		return nil, nil, err
	}

	category, err := s.categoryName(ctx, in.CategoryID)
	if err != nil {
		return nil, nil, err
	}

	expense, warning, err := NewExpense(groupID, in, category, ids)
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.CreateExpenseWithShares(ctx, *expense); err != nil {
		return nil, nil, storeErr("saving expense", err)
	}

	s.emit(EventExpenseAdded, groupID, userID, recordedEvent(expense))
	s.reportFallback(groupID, userID, expense, warning)
	return expense, warning, nil
}

// UpdateExpense fully replaces an expense and regenerates its shares.
func (s *Service) UpdateExpense(ctx context.Context, userID, groupID, expenseID uuid.UUID, in ExpenseInput) (*Expense, *split.FallbackWarning, error) {
	if _, _, err := s.authorize(ctx, groupID, userID); err != nil {
		return nil, nil, err
	}

	existing, err := s.store.GetExpense(ctx, groupID, expenseID)
	if err != nil {
		return nil, nil, storeErr("loading expense", err)
	}
	if existing == nil {
		return nil, nil, ErrExpenseNotFound
	}

	if in.PaidBy == uuid.Nil {
		in.PaidBy = existing.PaidBy
	}
	ids, err := s.participants(ctx, groupID, in.PaidBy)
	if err != nil {
		return nil, nil, err
	}

	category, err := s.categoryName(ctx, in.CategoryID)
	if err != nil {
		return nil, nil, err
	}

	expense, warning, err := ReplaceExpense(*existing, in, category, ids)
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.ReplaceSharesForExpense(ctx, *expense); err != nil {
		return nil, nil, storeErr("updating expense", err)
	}

	s.emit(EventExpenseUpdated, groupID, userID, recordedEvent(expense))
	s.reportFallback(groupID, userID, expense, warning)
	return expense, warning, nil
}

func (s *Service) reportFallback(groupID, userID uuid.UUID, expense *Expense, warning *split.FallbackWarning) {
	if warning == nil {
		return
	}
	slog.Info("split fell back to equal", "expense_id", expense.ID, "requested", warning.Requested, "reason", warning.Reason)
	s.emit(EventSplitFallback, groupID, userID, SplitFallbackEvent{
		ExpenseID: expense.ID.String(),
		Requested: warning.Requested,
		Reason:    warning.Reason.Error(),
	})
}

// DeleteExpense removes an expense together with its shares.
func (s *Service) DeleteExpense(ctx context.Context, userID, groupID, expenseID uuid.UUID) error {
	if _, _, err := s.authorize(ctx, groupID, userID); err != nil {
		return err
	}

	if err := s.store.DeleteExpenseAndShares(ctx, groupID, expenseID); err != nil {
		return storeErr("deleting expense", err)
	}

	s.emit(EventExpenseDeleted, groupID, userID, ExpenseDeletedEvent{ExpenseID: expenseID.String()})
	return nil
}

func (s *Service) Expenses(ctx context.Context, userID, groupID uuid.UUID) ([]Expense, error) {
	if _, _, err := s.authorize(ctx, groupID, userID); err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpensesWithShares(ctx, groupID)
	if err != nil {
		return nil, storeErr("listing expenses", err)
	}
	return expenses, nil
}

// Balances recomputes every member's position from scratch.
func (s *Service) Balances(ctx context.Context, userID, groupID uuid.UUID) (*Summary, error) {
	if _, _, err := s.authorize(ctx, groupID, userID); err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, storeErr("listing members", err)
	}
	expenses, err := s.store.ListExpensesWithShares(ctx, groupID)
	if err != nil {
		return nil, storeErr("listing expenses", err)
	}

	summary := CalculateBalances(members, expenses)
	return &summary, nil
}

// AddPersonalExpense records an expense owned by userID alone.
func (s *Service) AddPersonalExpense(ctx context.Context, userID uuid.UUID, in PersonalExpenseInput) (*PersonalExpense, error) {
	category, err := s.categoryName(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}

	expense, err := NewPersonalExpense(userID, in, category)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreatePersonalExpense(ctx, *expense); err != nil {
		return nil, storeErr("saving personal expense", err)
	}

	s.emitPersonal(EventPersonalExpenseAdded, userID, personalEvent(expense))
	return expense, nil
}

// UpdatePersonalExpense replaces one of the caller's own expenses. Expenses of
// other users are reported as not found.
func (s *Service) UpdatePersonalExpense(ctx context.Context, userID, expenseID uuid.UUID, in PersonalExpenseInput) (*PersonalExpense, error) {
	existing, err := s.store.GetPersonalExpense(ctx, userID, expenseID)
	if err != nil {
		return nil, storeErr("loading personal expense", err)
	}
	if existing == nil {
		return nil, ErrExpenseNotFound
	}

	category, err := s.categoryName(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}

	expense, err := ReplacePersonalExpense(*existing, in, category)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdatePersonalExpense(ctx, *expense); err != nil {
		return nil, storeErr("updating personal expense", err)
	}

	s.emitPersonal(EventPersonalExpenseUpdated, userID, personalEvent(expense))
	return expense, nil
}

func (s *Service) DeletePersonalExpense(ctx context.Context, userID, expenseID uuid.UUID) error {
	if err := s.store.DeletePersonalExpense(ctx, userID, expenseID); err != nil {
		return storeErr("deleting personal expense", err)
	}

	s.emitPersonal(EventPersonalExpenseDeleted, userID, PersonalExpenseEvent{ExpenseID: expenseID.String()})
	return nil
}

func (s *Service) PersonalExpenses(ctx context.Context, userID uuid.UUID) ([]PersonalExpense, error) {
	expenses, err := s.store.ListPersonalExpenses(ctx, userID)
	if err != nil {
		return nil, storeErr("listing personal expenses", err)
	}
	return expenses, nil
}
