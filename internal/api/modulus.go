package api

import (
	"context"
	"errors"
)

// GetModulus returns a fresh server-signed SRP modulus and its ID.
func (c *Client) GetModulus(ctx context.Context) (modulus, modulusID string, err error) {
	var result ModulusResponse
	if err := c.Do(ctx, "GET", "/core/v4/auth/modulus", nil, nil, &result); err != nil {
		return "", "", err
	}
	return result.Modulus, result.ModulusID, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
