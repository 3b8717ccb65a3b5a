package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

const authSchema = `
CREATE TABLE IF NOT EXISTS api_keys (
    id            INTEGER   PRIMARY KEY,
    key_hash      TEXT      NOT NULL UNIQUE,
    scopes        TEXT      NOT NULL,
    description   TEXT      NOT NULL
);
`

const (
	authHeader = "tf-auth"
	keyPrefix  = "tf_"
)

var (
	errKeyNotFound   = errors.New("key not found")
	errLastMasterKey = errors.New("cannot delete the last key holding the '*' scope")
)

func setupAuthSchema(db *sql.DB) error {
	if _, err := db.Exec(authSchema); err != nil {
		return fmt.Errorf("failed to create auth schema: %w", err)
	}
	return nil
}

// keyStore keeps hashed API keys and their scopes in the api_keys table.
type keyStore struct {
	db *sql.DB
}

func (k *keyStore) count(ctx context.Context) (int, error) {
	var n int
	err := k.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM api_keys").Scan(&n)
	return n, err
}

// lookup returns the scopes of rawKey, or errKeyNotFound.
func (k *keyStore) lookup(ctx context.Context, rawKey string) (scopeSet, error) {
	var stored string
	err := k.db.QueryRowContext(ctx, "SELECT scopes FROM api_keys WHERE key_hash = ?", hashAPIKey(rawKey)).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return parseScopes(stored), nil
}

func (k *keyStore) list(ctx context.Context) ([]APIKeyInfo, error) {
	rows, err := k.db.QueryContext(ctx, "SELECT id, description, scopes FROM api_keys ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	keys := []APIKeyInfo{}
	for rows.Next() {
		var info APIKeyInfo
		var stored string
		if err = rows.Scan(&info.ID, &info.Description, &stored); err != nil {
			return nil, err
		}
		info.Scopes = parseScopes(stored).names()
		keys = append(keys, info)
	}
	return keys, rows.Err()
}

// create stores a new key and returns its raw form. When the table is empty the
// key is given the '*' scope whatever was asked for, so the API cannot be left
// without a key able to manage the others.
func (k *keyStore) create(ctx context.Context, description string, scopes scopeSet) (int, string, scopeSet, error) {
	rawKey, err := generateAPIKey()
	if err != nil {
		return 0, "", nil, err
	}

	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM api_keys").Scan(&n); err != nil {
		return 0, "", nil, err
	}
	if n == 0 {
		scopes = scopeSet{scopeAll: {}}
	}

	var id int
	err = tx.QueryRowContext(ctx,
		"INSERT INTO api_keys (key_hash, description, scopes) VALUES (?, ?, ?) RETURNING id",
		hashAPIKey(rawKey), description, scopes.String()).Scan(&id)
	if err != nil {
		return 0, "", nil, err
	}
	if err = tx.Commit(); err != nil {
		return 0, "", nil, err
	}
	return id, rawKey, scopes, nil
}

// delete removes key id. The last key holding '*' cannot be removed.
func (k *keyStore) delete(ctx context.Context, id int) error {
	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var stored string
	err = tx.QueryRowContext(ctx, "SELECT scopes FROM api_keys WHERE id = ?", id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return errKeyNotFound
	}
	if err != nil {
		return err
	}

	if _, master := parseScopes(stored)[scopeAll]; master {
		var others int
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM api_keys WHERE id != ? AND (' ' || scopes || ' ') LIKE '% * %'", id).Scan(&others)
		if err != nil {
			return err
		}
		if others == 0 {
			return errLastMasterKey
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM api_keys WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// AuthAPI serves /api/auth and guards the rest of the API with scoped keys.
type AuthAPI struct {
	keys   *keyStore
	logger *slog.Logger
}

// NewAuthAPI creates a new instance of the AuthAPI.
func NewAuthAPI(db *sql.DB, logger *slog.Logger) *AuthAPI {
	return &AuthAPI{
		keys:   &keyStore{db: db},
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/auth endpoints.
func (a *AuthAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/me", a.handleMe)
	mux.HandleFunc("GET /api/auth/scopes", a.handleScopes)
	mux.HandleFunc("GET /api/auth/keys", a.handleListKeys)
	mux.HandleFunc("POST /api/auth/keys", a.handleCreateKey)
	mux.HandleFunc("DELETE /api/auth/keys/{id}", a.handleDeleteKey)
}

// APIKeyInfo is one entry of GET /api/auth/keys. The key itself is never returned.
type APIKeyInfo struct {
	ID          int      `json:"id"`
	Scopes      []string `json:"scopes"`
	Description string   `json:"description"`
}

// CreateKeyRequest is the expected JSON body for POST /api/auth/keys.
type CreateKeyRequest struct {
	Scopes      []string `json:"scopes"`
	Description string   `json:"description"`
}

// CreateKeyResponse carries the raw key. It is shown once.
type CreateKeyResponse struct {
	ID     int      `json:"id"`
	RawKey string   `json:"raw_key"`
	Scopes []string `json:"scopes"`
}

// Authenticate resolves the authHeader key to its scopes and stores them in the
// request context. While no keys exist every request gets '*'.
func (a *AuthAPI) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := a.keys.count(r.Context())
		if err != nil {
			a.logger.Error("Authenticate failed to count keys", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Database query failed")
			return
		}
		if n == 0 {
			next.ServeHTTP(w, r.WithContext(withScopes(r.Context(), scopeSet{scopeAll: {}})))
			return
		}

		rawKey := r.Header.Get(authHeader)
		if rawKey == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing "+authHeader+" header")
			return
		}
		scopes, err := a.keys.lookup(r.Context(), rawKey)
		if errors.Is(err, errKeyNotFound) {
			respondWithError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		if err != nil {
			a.logger.Error("Authenticate failed to look up key", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Database query failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(withScopes(r.Context(), scopes)))
	})
}

func (a *AuthAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	scopes, ok := scopesFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid or missing key")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string][]string{"scopes": scopes.names()})
}

func (a *AuthAPI) handleScopes(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, scopeTable())
}

func (a *AuthAPI) handleListKeys(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeAuthManage) {
		return
	}
	keys, err := a.keys.list(r.Context())
	if err != nil {
		a.logger.Error("Failed to list API keys", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	respondWithJSON(w, http.StatusOK, keys)
}

func (a *AuthAPI) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeAuthManage) {
		return
	}

	var req CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	scopes, err := validateScopes(req.Scopes)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, rawKey, granted, err := a.keys.create(r.Context(), req.Description, scopes)
	if err != nil {
		a.logger.Error("Failed to create API key", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save new key")
		return
	}

	a.logger.Info("API key created", "id", id, "scopes", granted.String())
	respondWithJSON(w, http.StatusCreated, CreateKeyResponse{
		ID:     id,
		RawKey: rawKey,
		Scopes: granted.names(),
	})
}

func (a *AuthAPI) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeAuthManage) {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid key ID format in URL")
		return
	}

	switch err = a.keys.delete(r.Context(), id); {
	case errors.Is(err, errKeyNotFound):
		respondWithError(w, http.StatusNotFound, "Key not found")
	case errors.Is(err, errLastMasterKey):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		a.logger.Error("Failed to delete API key", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete key")
	default:
		a.logger.Info("API key deleted", "id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return keyPrefix + hex.EncodeToString(buf), nil
}

func hashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
