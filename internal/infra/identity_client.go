package infra

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// roleServerDown is the role the identity service reports from its fallback.
const roleServerDown = "SERVERDOWN"

type UserInfo struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type IdentityClient struct {
	rest restClient
}

func NewIdentityClient(baseURL string, timeout time.Duration) *IdentityClient {
	return &IdentityClient{rest: newRestClient("identity", baseURL, timeout)}
}

func (c *IdentityClient) GetUser(ctx context.Context, customerID uint64) (*UserInfo, error) {
	var u UserInfo
	if _, err := c.rest.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", customerID), nil, &u); err != nil {
		return nil, err
	}
	if strings.EqualFold(u.Role, roleServerDown) {
		return nil, unavailable("identity", "fallback user %d", customerID)
	}
	return &u, nil
}
