// Package seed fills an account with plausible fake transactions and goals
// for demos.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"moneymind/internal/core"
	"moneymind/internal/services"
)

var (
	expenseCategories = []string{"Food", "Rent", "Transport", "Utilities", "Shopping", "Health", "Entertainment", "Travel"}
	incomeCategories  = []string{"Salary", "Freelance", "Interest", "Dividends", "Gift"}
	goalTitles        = []string{"Emergency fund", "New laptop", "Vacation", "Car down payment", "Wedding", "Home renovation"}
)

type Options struct {
	Name     string
	Email    string
	Password string

	Transactions int
	Goals        int

	// Seed makes the generated data reproducible. Zero picks a random seed.
	Seed int64
	// Now anchors generated dates. Zero means time.Now.
	Now time.Time
}

type Result struct {
	User         core.User
	Password     string
	Transactions int
	Goals        int
}

// Seeder writes through the services so generated records pass the same
// validation and emit the same activity events as real ones.
type Seeder struct {
	users *services.UserService
	txs   *services.TransactionService
	goals *services.GoalService
}

func New(users *services.UserService, txs *services.TransactionService, goals *services.GoalService) *Seeder {
	return &Seeder{users: users, txs: txs, goals: goals}
}

// Run creates the user, or logs into it when the email is already taken and
// the password matches, then adds the requested records.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	faker := gofakeit.New(opts.Seed)
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	if opts.Name == "" {
		opts.Name = faker.Name()
	}
	if opts.Email == "" {
		opts.Email = faker.Email()
	}
	if opts.Password == "" {
		opts.Password = faker.Password(true, true, true, false, false, 12)
	}

	session, err := s.users.Signup(ctx, services.SignupInput{Name: opts.Name, Email: opts.Email, Password: opts.Password})
	if errors.Is(err, core.ErrConflict) {
		session, err = s.users.Login(ctx, opts.Email, opts.Password)
	}
	if err != nil {
		return Result{}, fmt.Errorf("seed user: %w", err)
	}
	userID := session.User.ID

	res := Result{User: session.User, Password: opts.Password}

	start := now.AddDate(-1, 0, 0)
	for range opts.Transactions {
		in := fakeTransaction(faker, start, now)
		if _, err := s.txs.Create(ctx, userID, in); err != nil {
			return res, fmt.Errorf("seed transaction: %w", err)
		}
		res.Transactions++
	}

	for range opts.Goals {
		in := fakeGoal(faker, now)
		if _, err := s.goals.Create(ctx, userID, in); err != nil {
			return res, fmt.Errorf("seed goal: %w", err)
		}
		res.Goals++
	}

	return res, nil
}

// fakeTransaction makes roughly one income for every four expenses.
func fakeTransaction(faker *gofakeit.Faker, start, end time.Time) services.TransactionInput {
	in := services.TransactionInput{
		Type:     core.Expense,
		Category: faker.RandomString(expenseCategories),
		Amount:   cents(faker.Price(50, 5000)),
		Date:     core.DateOf(faker.DateRange(start, end)),
	}
	if faker.Number(1, 5) == 1 {
		in.Type = core.Income
		in.Category = faker.RandomString(incomeCategories)
		in.Amount = cents(faker.Price(10000, 90000))
	}
	if faker.Bool() {
		in.Note = faker.Sentence(4)
	}
	return in
}

func fakeGoal(faker *gofakeit.Faker, now time.Time) services.GoalInput {
	target := cents(faker.Price(5000, 500000))
	current := core.Money{Cents: target.Cents * int64(faker.Number(0, 120)) / 100}
	return services.GoalInput{
		Title:         faker.RandomString(goalTitles),
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      core.DateOf(now.AddDate(0, faker.Number(-3, 24), 0)),
	}
}

func cents(v float64) core.Money {
	m, err := core.ParseMoney(fmt.Sprintf("%.2f", v))
	if err != nil {
		return core.Money{}
	}
	return m
}
