package users

const userColumns = `id, name, email, password_hash, avatar, auth_provider, provider_id, email_verified_at, created_at, updated_at`

const (
	queryFindByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = $1
	`

	queryFindByProviderIdentity = `
		SELECT ` + userColumns + `
		FROM users
		WHERE auth_provider = $1 AND provider_id = $2
	`

	queryFindByID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	queryInsert = `
		INSERT INTO users (name, email, password_hash, avatar, auth_provider, provider_id, email_verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	queryUpdate = `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, avatar = $5, auth_provider = $6,
			provider_id = $7, email_verified_at = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
)
