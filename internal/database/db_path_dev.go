//go:build !prod

package database

const dbFileName = "braindrive-settings.db"

// GetDefaultDBPath keeps the development database next to the working
// directory so it can be inspected and thrown away easily.
func GetDefaultDBPath() string {
	return dbFileName
}

func IsDevelopment() bool {
	return true
}
