package simulate

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Identity is the AWS principal a set of credentials resolves to.
type Identity struct {
	Account string `json:"account"`
	ARN     string `json:"arn"`
	UserID  string `json:"userId"`
}

// IdentityChecker resolves credentials to the principal they authenticate as.
type IdentityChecker interface {
	CallerIdentity(ctx context.Context, c Credentials) (*Identity, error)
}

// STSChecker asks AWS STS who the credentials belong to.
type STSChecker struct{}

var _ IdentityChecker = STSChecker{}

// CallerIdentity calls sts:GetCallerIdentity with the static credentials in c.
func (STSChecker) CallerIdentity(ctx context.Context, c Credentials) (*Identity, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %w", ErrIdentity, err)
	}

	out, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentity, err)
	}
	return &Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}
