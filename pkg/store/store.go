// Package store is the document persistence layer. Mongo backs the service,
// Memory backs handler and rewards tests.
package store

import (
	"context"
	"errors"
	"time"

	"greencreditapi/pkg/schemas"
)

var (
	ErrNotFound            = errors.New("document not found")
	ErrConflict            = errors.New("document conflicts with an existing one")
	ErrNotDeletable        = errors.New("submission can no longer be deleted")
	ErrInsufficientBalance = errors.New("redeemable balance too low")
	ErrDuplicateOrder      = errors.New("order with this idempotency key exists")
)

type SubmissionFilter struct {
	UserId string
	Status string
}

type SolarRequestFilter struct {
	UserId string
	Status string
}

// Review is an admin decision on one submission.
type Review struct {
	Status     string
	Tokens     *int
	Rating     *int
	ReviewedBy string
}

type Store interface {
	CreateUser(ctx context.Context, user *schemas.User) error
	GetUser(ctx context.Context, id string) (*schemas.User, error)
	GetUserByEmail(ctx context.Context, email string) (*schemas.User, error)
	GetUserByGoogleId(ctx context.Context, googleId string) (*schemas.User, error)
	// EnsureUser inserts user when no document with its id exists and returns
	// the stored document.
	EnsureUser(ctx context.Context, user *schemas.User) (*schemas.User, error)
	ListUsers(ctx context.Context) ([]schemas.User, error)
	UpdateProfile(ctx context.Context, id string, firstName string, lastName string) (*schemas.User, error)
	AddCachedTokens(ctx context.Context, id string, delta int) error

	InsertSubmission(ctx context.Context, sub *schemas.Submission) error
	GetSubmission(ctx context.Context, kind schemas.Kind, id string) (*schemas.Submission, error)
	ListSubmissions(ctx context.Context, kind schemas.Kind, filter SubmissionFilter) ([]schemas.Submission, error)
	// ReviewSubmission applies review and returns the submission as it was
	// before and after.
	ReviewSubmission(ctx context.Context, kind schemas.Kind, id string, review Review) (before *schemas.Submission, after *schemas.Submission, err error)
	// DeleteSubmission removes a pending or rejected submission owned by userId
	// and returns it.
	DeleteSubmission(ctx context.Context, kind schemas.Kind, id string, userId string) (*schemas.Submission, error)

	UpsertSolarReward(ctx context.Context, reward *schemas.SolarReward) error
	DeleteSolarReward(ctx context.Context, id string) error
	ListSolarRewards(ctx context.Context, userId string) ([]schemas.SolarReward, error)

	InsertSolarRequest(ctx context.Context, req *schemas.SolarRequest) error
	GetSolarRequest(ctx context.Context, id string) (*schemas.SolarRequest, error)
	ListSolarRequests(ctx context.Context, filter SolarRequestFilter) ([]schemas.SolarRequest, error)
	// AcceptInstaller moves an open request owned by ownerId to in progress.
	AcceptInstaller(ctx context.Context, requestId string, ownerId string, applicationId string) (*schemas.SolarRequest, error)
	SetSolarRequestStatus(ctx context.Context, id string, status string) error
	MarkCompletedByOwner(ctx context.Context, id string, ownerId string) error
	InsertSolarApplication(ctx context.Context, app *schemas.SolarApplication) error
	ListSolarApplications(ctx context.Context, requestId string) ([]schemas.SolarApplication, error)

	InsertCleanupEvent(ctx context.Context, event *schemas.CleanupEvent) error
	GetCleanupEvent(ctx context.Context, id string) (*schemas.CleanupEvent, error)
	// ListCleanupEvents returns events starting at or after from, soonest first.
	ListCleanupEvents(ctx context.Context, from time.Time) ([]schemas.CleanupEvent, error)
	// InsertEventRegistration fails with ErrConflict when the user is already
	// registered for the event.
	InsertEventRegistration(ctx context.Context, reg *schemas.EventRegistration) error
	GetEventRegistration(ctx context.Context, eventId string, userId string) (*schemas.EventRegistration, error)
	ListEventRegistrations(ctx context.Context, userId string) ([]schemas.EventRegistration, error)

	InsertProduct(ctx context.Context, product *schemas.Product) error
	GetProduct(ctx context.Context, id string) (*schemas.Product, error)
	ListProducts(ctx context.Context) ([]schemas.Product, error)

	// PlaceOrder writes order and its debit atomically after checking the
	// ledger can cover it.
	PlaceOrder(ctx context.Context, order *schemas.Order, debit *schemas.LedgerEntry) error
	GetOrder(ctx context.Context, id string) (*schemas.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, userId string, key string) (*schemas.Order, error)
	ListOrders(ctx context.Context, userId string) ([]schemas.Order, error)

	AppendLedger(ctx context.Context, entry *schemas.LedgerEntry) error
	ListLedger(ctx context.Context, userId string) ([]schemas.LedgerEntry, error)

	InsertMessage(ctx context.Context, msg *schemas.ChatMessage) error
	ListMessages(ctx context.Context, userId string) ([]schemas.ChatMessage, error)
	ListThreads(ctx context.Context) ([]schemas.ChatThread, error)
}
