package hosting

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/jsii-runtime-go"
)

const (
	IndexDocument = "index.html"

	// ErrorCachingMinTTL is how long, in seconds, CloudFront caches a rewritten error.
	ErrorCachingMinTTL = 30

	// CertificateRegion is the only region CloudFront accepts viewer certificates from.
	CertificateRegion = "us-east-1"
)

// ErrorRewrite maps an origin error status onto the single-page app entry point.
type ErrorRewrite struct {
	ErrorCode        int
	ResponseCode     int
	ResponsePagePath string
	CachingMinTTL    int
}

// ErrorRewrites returns the 403 and 404 rewrites. S3 answers 403 for missing keys behind an
// origin access identity, so both must serve the app for client-side routes to resolve.
func ErrorRewrites() []ErrorRewrite {
	out := make([]ErrorRewrite, 0, 2)
	for _, code := range []int{403, 404} {
		out = append(out, ErrorRewrite{
			ErrorCode:        code,
			ResponseCode:     200,
			ResponsePagePath: "/" + IndexDocument,
			CachingMinTTL:    ErrorCachingMinTTL,
		})
	}
	return out
}

func (r ErrorRewrite) property() *awscloudfront.CfnDistribution_CustomErrorResponseProperty {
	return &awscloudfront.CfnDistribution_CustomErrorResponseProperty{
		ErrorCode:          jsii.Number(float64(r.ErrorCode)),
		ResponseCode:       jsii.Number(float64(r.ResponseCode)),
		ResponsePagePath:   jsii.String(r.ResponsePagePath),
		ErrorCachingMinTtl: jsii.Number(float64(r.CachingMinTTL)),
	}
}

func errorConfigurations(rewrites []ErrorRewrite) *[]*awscloudfront.CfnDistribution_CustomErrorResponseProperty {
	out := make([]*awscloudfront.CfnDistribution_CustomErrorResponseProperty, 0, len(rewrites))
	for _, r := range rewrites {
		out = append(out, r.property())
	}
	return &out
}
