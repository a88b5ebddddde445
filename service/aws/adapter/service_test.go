package awsadapter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/smithy-go"
	"github.com/elC0mpa/cloud-steward/model"
	awselb "github.com/elC0mpa/cloud-steward/service/aws/elb"
	"github.com/elC0mpa/cloud-steward/service/discovery"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeIdentity struct{ err error }

func (f fakeIdentity) GetAccountInfo(context.Context) (*model.AccountInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.AccountInfo{Provider: "aws", AccountID: "123456789012"}, nil
}

type fakeEC2 struct {
	calls atomic.Int32
}

func (f *fakeEC2) ListInstances(context.Context) ([]ec2types.Instance, error) {
	f.calls.Add(1)
	return []ec2types.Instance{{InstanceId: aws.String("i-1")}, {InstanceId: aws.String("i-2")}}, nil
}

func (f *fakeEC2) ListVolumes(context.Context) ([]ec2types.Volume, error) {
	f.calls.Add(1)
	return []ec2types.Volume{{VolumeId: aws.String("vol-1")}}, nil
}

func (f *fakeEC2) ListAddresses(context.Context) ([]ec2types.Address, error) {
	f.calls.Add(1)
	return []ec2types.Address{{AllocationId: aws.String("eipalloc-1")}}, nil
}

func (f *fakeEC2) ActiveReservations(context.Context) (map[string]int, error) {
	return map[string]int{"t3.medium": 1}, nil
}

type fakeELB struct{}

func (fakeELB) ListLoadBalancers(context.Context) ([]awselb.LoadBalancer, error) {
	return []awselb.LoadBalancer{{
		LoadBalancer: elbtypes.LoadBalancer{LoadBalancerArn: aws.String("arn:lb/1")},
		Tags:         []elbtypes.Tag{{Key: aws.String("Name"), Value: aws.String("edge")}},
	}}, nil
}

type fakeRDS struct {
	err   error
	calls atomic.Int32
}

func (f *fakeRDS) ListDBInstances(context.Context) ([]rdstypes.DBInstance, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []rdstypes.DBInstance{{DBInstanceIdentifier: aws.String("orders")}}, nil
}

func newTestAdapter(t *testing.T, clients *Clients) *adapter {
	collector := discovery.NewService(discovery.DefaultConfig(), zaptest.NewLogger(t),
		retry.WithSleep(func(context.Context, time.Duration) error { return nil }))
	factory := func(context.Context, model.Credentials) (*Clients, error) { return clients, nil }
	return NewAdapter(factory, collector, zaptest.NewLogger(t))
}

func TestListResources(t *testing.T) {
	a := newTestAdapter(t, &Clients{
		Identity: fakeIdentity{},
		EC2:      &fakeEC2{},
		ELB:      fakeELB{},
		RDS:      &fakeRDS{},
	})

	result, err := a.ListResources(context.Background(), model.Credentials{Region: "us-east-1"}, model.AllCategories)
	require.NoError(t, err)
	assert.False(t, result.Partial())

	subtypes := make([]string, 0, len(result.Records))
	for _, r := range result.Records {
		subtypes = append(subtypes, r.Subtype())
	}
	assert.Equal(t, []string{
		model.SubtypeEC2Instance,
		model.SubtypeEC2Instance,
		model.SubtypeEBSVolume,
		model.SubtypeRDSInstance,
		model.SubtypeElasticIP,
		model.SubtypeLoadBalancer,
	}, subtypes)

	lb := result.Records[5].(model.AWSLoadBalancer)
	assert.Equal(t, "edge", aws.ToString(lb.Tags[0].Value))
}

func TestListResources_IdentityFailureAbortsListing(t *testing.T) {
	ec2 := &fakeEC2{}
	a := newTestAdapter(t, &Clients{
		Identity: fakeIdentity{err: &smithy.GenericAPIError{Code: "InvalidClientTokenId"}},
		EC2:      ec2,
		ELB:      fakeELB{},
		RDS:      &fakeRDS{},
	})

	result, err := a.ListResources(context.Background(), model.Credentials{}, model.AllCategories)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, model.IsAuthentication(err))
	assert.Zero(t, ec2.calls.Load())
}

func TestListResources_FailedCategoryIsIsolated(t *testing.T) {
	rds := &fakeRDS{err: &smithy.GenericAPIError{Code: "AccessDenied"}}
	a := newTestAdapter(t, &Clients{
		Identity: fakeIdentity{},
		EC2:      &fakeEC2{},
		ELB:      fakeELB{},
		RDS:      rds,
	})

	result, err := a.ListResources(context.Background(), model.Credentials{}, model.AllCategories)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, model.ResourceDatabase, result.Errors[0].Category)
	assert.True(t, model.IsAuthentication(result.Errors[0].Err))
	assert.EqualValues(t, 1, rds.calls.Load(), "access denied is not retried")
	assert.Len(t, result.Records, 5)
}

func TestListResources_ThrottledCategoryIsRetried(t *testing.T) {
	rds := &fakeRDS{err: &smithy.GenericAPIError{Code: "Throttling"}}
	a := newTestAdapter(t, &Clients{
		Identity: fakeIdentity{},
		EC2:      &fakeEC2{},
		ELB:      fakeELB{},
		RDS:      rds,
	})

	result, err := a.ListResources(context.Background(), model.Credentials{}, []model.Category{model.ResourceDatabase})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.True(t, model.IsNetwork(result.Errors[0].Err))
	assert.EqualValues(t, retry.DefaultConfig().MaxAttempts, rds.calls.Load())
}

func TestSources(t *testing.T) {
	a := newTestAdapter(t, &Clients{Identity: fakeIdentity{}, EC2: &fakeEC2{}})

	sources, err := a.Sources(context.Background(), model.Credentials{})
	require.NoError(t, err)
	require.NotNil(t, sources.Reservations)
	assert.Nil(t, sources.Billing)

	coverage, err := sources.Reservations.ActiveReservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, coverage["t3.medium"])
}

func TestListResources_FactoryError(t *testing.T) {
	collector := discovery.NewService(discovery.DefaultConfig(), zaptest.NewLogger(t))
	boom := errors.New("no region")
	a := NewAdapter(func(context.Context, model.Credentials) (*Clients, error) { return nil, boom }, collector, nil)

	_, err := a.ListResources(context.Background(), model.Credentials{}, model.AllCategories)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, model.ProviderAWS, a.Provider())
}
