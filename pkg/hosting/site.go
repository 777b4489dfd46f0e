package hosting

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/naming"
)

// OutputURL is the id of the stack output carrying the site addresses.
const OutputURL = "URL"

// Site is the static hosting chain for one app: bucket, identity, certificate, distribution
// and DNS alias.
type Site struct {
	Subdomain string

	Bucket       awss3.Bucket
	Identity     awscloudfront.OriginAccessIdentity
	Zone         awsroute53.IHostedZone
	Certificate  awscertificatemanager.DnsValidatedCertificate
	Distribution awscloudfront.CloudFrontWebDistribution
	Record       awsroute53.ARecord
	URL          awscdk.CfnOutput
}

// New declares the hosting topology for ctx under scope. The enclosing stack needs a concrete
// account and region for the hosted zone lookup.
func New(scope constructs.Construct, ctx config.Context) *Site {
	site := &Site{Subdomain: ctx.Subdomain()}

	site.Bucket = awss3.NewBucket(scope, jsii.String(naming.ConstructID(ctx.AppName, "bucket")), &awss3.BucketProps{
		WebsiteIndexDocument: jsii.String(IndexDocument),
		WebsiteErrorDocument: jsii.String(IndexDocument),
		RemovalPolicy:        awscdk.RemovalPolicy_DESTROY,
		AutoDeleteObjects:    jsii.Bool(true),
	})

	site.Identity = awscloudfront.NewOriginAccessIdentity(scope, jsii.String(naming.ConstructID(ctx.AppName, ctx.Environment, "origin-access-id")), &awscloudfront.OriginAccessIdentityProps{})
	site.Bucket.GrantRead(site.Identity, nil)

	site.Zone = awsroute53.HostedZone_FromLookup(scope, jsii.String(ctx.Domain), &awsroute53.HostedZoneProviderProps{
		DomainName:  jsii.String(ctx.Domain),
		PrivateZone: jsii.Bool(false),
	})

	site.Certificate = awscertificatemanager.NewDnsValidatedCertificate(scope, jsii.String(naming.ConstructID(ctx.AppName, "certificate")), &awscertificatemanager.DnsValidatedCertificateProps{
		DomainName: jsii.String(site.Subdomain),
		HostedZone: site.Zone,
		Region:     jsii.String(CertificateRegion),
	})

	site.Distribution = awscloudfront.NewCloudFrontWebDistribution(scope, jsii.String(naming.ConstructID(ctx.AppName, "web-distribution")), &awscloudfront.CloudFrontWebDistributionProps{
		OriginConfigs: &[]*awscloudfront.SourceConfiguration{
			{
				S3OriginSource: &awscloudfront.S3OriginConfig{
					S3BucketSource:       site.Bucket,
					OriginAccessIdentity: site.Identity,
				},
				Behaviors: &[]*awscloudfront.Behavior{
					{IsDefaultBehavior: jsii.Bool(true)},
				},
			},
		},
		ViewerCertificate: awscloudfront.ViewerCertificate_FromAcmCertificate(site.Certificate, &awscloudfront.ViewerCertificateOptions{
			Aliases: jsii.Strings(site.Subdomain),
		}),
		ErrorConfigurations: errorConfigurations(ErrorRewrites()),
	})

	site.Record = awsroute53.NewARecord(scope, jsii.String("ARecord"), &awsroute53.ARecordProps{
		RecordName: jsii.String(site.Subdomain),
		Zone:       site.Zone,
		Target:     awsroute53.RecordTarget_FromAlias(awsroute53targets.NewCloudFrontTarget(site.Distribution)),
	})

	site.URL = awscdk.NewCfnOutput(scope, jsii.String(OutputURL), &awscdk.CfnOutputProps{
		Description: jsii.String("The url of the website"),
		Value:       jsii.String(*site.Bucket.BucketWebsiteUrl() + "\n" + site.Subdomain),
	})

	return site
}

// DistributionID is the token resolving to the distribution id at deploy time.
func (s *Site) DistributionID() *string {
	return s.Distribution.DistributionId()
}
