package ledger

// SeedAccount installs or replaces an account when the store is the
// in-memory implementation. Test helper.
func SeedAccount(s Store, account Account) {
	if m, ok := s.(*memoryStore); ok {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.accounts[account.ID] = &memoryAccount{account: account}
	}
}

// FailCommits makes the next n commits on the in-memory store fail after the
// writes have been staged, exercising rollback and atomicity paths.
func FailCommits(s Store, n int) {
	if m, ok := s.(*memoryStore); ok {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.commitFaults = n
	}
}
