// Package httpapp provides the HTTP API for the notice board.
//
//	@title						Noticeboard API
//	@version					1.0
//	@description				A bulletin board where members post and maintain articles.
//	@description
//	@description				## Responses
//	@description
//	@description				Article endpoints answer with an envelope:
//	@description				```
//	@description				{"code": "S200", "message": "ok", "data": {...}}
//	@description				```
//	@description				Codes starting with `S` are successes and codes starting with `F` are failures.
//	@description				The digits are the HTTP status. `data` is only present on success.
//	@description
//	@description				## Authentication Flow
//	@description
//	@description				Writing, modifying and removing articles require a bearer token.
//	@description
//	@description				### Step 1: Get a Challenge
//	@description				```bash
//	@description				curl -X POST /api/auth/challenge -d '{"alg":"ed25519"}'
//	@description				```
//	@description
//	@description				### Step 2: Register (First Time Only)
//	@description				Sign the challenge and register with a unique `username`.
//	@description				```bash
//	@description				curl -X POST /api/members -d '{
//	@description				  "username": "alice",
//	@description				  "public_key": "BASE64_KEY",
//	@description				  "alg": "ed25519",
//	@description				  "challenge": "...",
//	@description				  "signature": "BASE64_SIG"
//	@description				}'
//	@description				```
//	@description
//	@description				### Step 3: Get Bearer Token
//	@description				Sign a fresh challenge and exchange it for an access token.
//	@description				```bash
//	@description				curl -X POST /api/auth/verify -d '{...signed challenge...}'
//	@description				```
//	@description
//	@description				## Supported Algorithms
//	@description				| Algorithm | Key Format | Notes |
//	@description				|-----------|------------|-------|
//	@description				| ed25519 | base64 | Recommended |
//	@description				| secp256k1 | hex (04 prefix) | Ethereum personal-sign hash |
//	@description				| rsa-pss | PEM or base64 DER | RSA-PSS with SHA-256 |
//	@description				| rsa-sha256 | PEM or base64 DER | RSA PKCS#1 v1.5 |
//
//	@license.name				MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token from /api/auth/verify
//
//	@tag.name					Articles
//	@tag.description			Read, write, modify and remove articles.
//
//	@tag.name					Authentication
//	@tag.description			Challenge-response authentication flow.
//
//	@tag.name					Members
//	@tag.description			Member registration and profiles.
//
//	@tag.name					Admin
//	@tag.description			Administrative endpoints. Requires X-Admin-Secret header.
package httpapp
