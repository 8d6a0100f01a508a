package store

const (
	createUser = `INSERT INTO users (login, auth_hash)
    VALUES ($1, $2)
    RETURNING user_id, login, auth_hash, created_at;`

	findUserByLogin = `SELECT user_id, login, auth_hash, created_at
    FROM users
    WHERE login = $1;`
)
