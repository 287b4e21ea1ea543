package http

import (
	"github.com/memphis-pe/oc-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/memphis-pe/oc-api/internal/infrastructure/jwt"
	"github.com/memphis-pe/oc-api/internal/infrastructure/push"
	"github.com/memphis-pe/oc-api/internal/infrastructure/ruc"
	s3infra "github.com/memphis-pe/oc-api/internal/infrastructure/s3"
	"github.com/memphis-pe/oc-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	OrderRepo    *dynamo.OrderRepo
	SupplierRepo *dynamo.SupplierRepo
	UserRepo     *dynamo.UserRepo
	SessionRepo  *dynamo.SessionRepo
	TokenRepo    *dynamo.TokenRepo
	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	PushSender   push.Sender
	RUCClient    *ruc.Client
	JWTProvider  *jwtinfra.Provider
}
