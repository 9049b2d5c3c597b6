package refreshtokens

const (
	queryFindByTokenAndUser = `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1 AND user_id = $2
	`

	queryInsert = `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token, expires_at, created_at
	`

	queryDeleteByID = `
		DELETE FROM refresh_tokens
		WHERE id = $1
	`

	queryDeleteByUserAndToken = `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND token = $2
	`

	queryDeleteAllByUser = `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
	`

	queryDeleteExpired = `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
	`
)
