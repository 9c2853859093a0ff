package migrate

import "testing"

func TestMigrationsDirIsValid(t *testing.T) {
	t.Parallel()

	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}
