package models

// All lists the ledger tables in dependency order. sqlite-backed dev runs and
// tests migrate from this list; postgres uses the goose migrations.
func All() []any {
	return []any{
		&Wallet{},
		&Collection{},
		&Contribution{},
		&Transaction{},
		&CollectionLike{},
		&UserRole{},
	}
}
