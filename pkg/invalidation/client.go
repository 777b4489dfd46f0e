package invalidation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/oklog/ulid/v2"
)

// AllPaths invalidates every object in the distribution.
const AllPaths = "/*"

const (
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"

	defaultPollInterval = 10 * time.Second
)

// Invalidation is the state of one CloudFront invalidation batch.
type Invalidation struct {
	ID              string
	DistributionID  string
	Status          string
	CallerReference string
	Paths           []string
	CreatedAt       time.Time
}

func (i Invalidation) Completed() bool {
	return i.Status == StatusCompleted
}

// Client creates and tracks CloudFront invalidations.
type Client interface {
	Create(ctx context.Context, distributionID string, paths ...string) (Invalidation, error)
	Get(ctx context.Context, distributionID, id string) (Invalidation, error)
	Wait(ctx context.Context, inv Invalidation) (Invalidation, error)
}

type cloudFrontAPI interface {
	CreateInvalidation(
		ctx context.Context,
		params *cloudfront.CreateInvalidationInput,
		optFns ...func(*cloudfront.Options),
	) (*cloudfront.CreateInvalidationOutput, error)
	GetInvalidation(
		ctx context.Context,
		params *cloudfront.GetInvalidationInput,
		optFns ...func(*cloudfront.Options),
	) (*cloudfront.GetInvalidationOutput, error)
}

type client struct {
	api          cloudFrontAPI
	pollInterval time.Duration
	reference    func() string
}

type clientOptions struct {
	api          cloudFrontAPI
	awsCfg       *aws.Config
	region       string
	profile      string
	creds        aws.CredentialsProvider
	pollInterval time.Duration
	reference    func() string
}

type Option func(*clientOptions)

func WithAWSConfig(cfg aws.Config) Option {
	return func(opts *clientOptions) {
		cfgCopy := cfg
		opts.awsCfg = &cfgCopy
	}
}

func WithAPI(api cloudFrontAPI) Option {
	return func(opts *clientOptions) {
		opts.api = api
	}
}

func WithRegion(region string) Option {
	return func(opts *clientOptions) {
		opts.region = strings.TrimSpace(region)
	}
}

// WithProfile selects a named profile from the shared AWS config files.
func WithProfile(profile string) Option {
	return func(opts *clientOptions) {
		opts.profile = strings.TrimSpace(profile)
	}
}

// WithStaticCredentials pins explicit keys, bypassing the default credential chain.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(opts *clientOptions) {
		opts.creds = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(opts *clientOptions) {
		opts.pollInterval = interval
	}
}

// WithCallerReference overrides the idempotency token generator. Defaults to a ULID.
func WithCallerReference(fn func() string) Option {
	return func(opts *clientOptions) {
		opts.reference = fn
	}
}

func NewClient(ctx context.Context, options ...Option) (Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &clientOptions{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(opts)
	}

	c := &client{
		api:          opts.api,
		pollInterval: opts.pollInterval,
		reference:    opts.reference,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.reference == nil {
		c.reference = func() string { return ulid.Make().String() }
	}
	if c.api != nil {
		return c, nil
	}

	var cfg aws.Config
	if opts.awsCfg != nil {
		cfg = *opts.awsCfg
	} else {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if opts.region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(opts.region))
		}
		if opts.profile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.profile))
		}
		if opts.creds != nil {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(opts.creds))
		}
		loaded, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("invalidation: load aws config: %w", err)
		}
		cfg = loaded
	}

	c.api = cloudfront.NewFromConfig(cfg)
	return c, nil
}

// NormalizePaths trims, drops blanks, prefixes a leading slash and dedupes, keeping order.
// No paths at all means every path.
func NormalizePaths(paths []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return []string{AllPaths}
	}
	return out
}

func (c *client) Create(ctx context.Context, distributionID string, paths ...string) (Invalidation, error) {
	if c == nil || c.api == nil {
		return Invalidation{}, errors.New("invalidation: client is nil")
	}
	distributionID = strings.TrimSpace(distributionID)
	if distributionID == "" {
		return Invalidation{}, errors.New("invalidation: distribution id is empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	paths = NormalizePaths(paths)
	ref := c.reference()
	out, err := c.api.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(distributionID),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String(ref),
			Paths: &types.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	if err != nil {
		return Invalidation{}, fmt.Errorf("invalidation: create on %s: %w", distributionID, err)
	}
	if out == nil || out.Invalidation == nil {
		return Invalidation{}, errors.New("invalidation: empty create response")
	}

	inv := fromAPI(distributionID, out.Invalidation)
	if inv.CallerReference == "" {
		inv.CallerReference = ref
	}
	if len(inv.Paths) == 0 {
		inv.Paths = paths
	}
	return inv, nil
}

func (c *client) Get(ctx context.Context, distributionID, id string) (Invalidation, error) {
	if c == nil || c.api == nil {
		return Invalidation{}, errors.New("invalidation: client is nil")
	}
	distributionID = strings.TrimSpace(distributionID)
	id = strings.TrimSpace(id)
	if distributionID == "" || id == "" {
		return Invalidation{}, errors.New("invalidation: distribution id and invalidation id are required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	out, err := c.api.GetInvalidation(ctx, &cloudfront.GetInvalidationInput{
		DistributionId: aws.String(distributionID),
		Id:             aws.String(id),
	})
	if err != nil {
		return Invalidation{}, fmt.Errorf("invalidation: get %s: %w", id, err)
	}
	if out == nil || out.Invalidation == nil {
		return Invalidation{}, errors.New("invalidation: empty get response")
	}
	return fromAPI(distributionID, out.Invalidation), nil
}

// Wait polls until inv completes or ctx is done.
func (c *client) Wait(ctx context.Context, inv Invalidation) (Invalidation, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if inv.Completed() {
		return inv, nil
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return inv, ctx.Err()
		case <-ticker.C:
		}

		current, err := c.Get(ctx, inv.DistributionID, inv.ID)
		if err != nil {
			return inv, err
		}
		if current.Completed() {
			return current, nil
		}
		inv = current
	}
}

func fromAPI(distributionID string, in *types.Invalidation) Invalidation {
	inv := Invalidation{
		ID:             aws.ToString(in.Id),
		DistributionID: distributionID,
		Status:         aws.ToString(in.Status),
		CreatedAt:      aws.ToTime(in.CreateTime),
	}
	if batch := in.InvalidationBatch; batch != nil {
		inv.CallerReference = aws.ToString(batch.CallerReference)
		if batch.Paths != nil {
			inv.Paths = append([]string(nil), batch.Paths.Items...)
		}
	}
	return inv
}
