package user

import (
	"context"

	"github.com/billbatista/acasinha-splits/ledger"
)

// Directory lets the ledger look up registered users by email.
type Directory struct {
	users Repository
}

func NewDirectory(users Repository) *Directory {
	return &Directory{users: users}
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (*ledger.Person, error) {
	u, err := d.users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	return &ledger.Person{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

var _ ledger.Directory = (*Directory)(nil)
