package service

import "github.com/pankaj085/lotuslynx/internal/domain"

// TokenResponse matches OAuth2 token responses.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// PaymentIntentResponse is returned from payment intent creation. The
// client secret is consumed by the frontend payment form.
type PaymentIntentResponse struct {
	Product      domain.Product `json:"product"`
	ClientSecret string         `json:"client_secret"`
	AmountCents  int64          `json:"amount"`
	Currency     string         `json:"currency"`
}
