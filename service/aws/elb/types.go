package awselb

import (
	"context"

	elb "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
)

// describeTagsBatch is the DescribeTags limit on resource ARNs per call
const describeTagsBatch = 20

type service struct {
	client *elb.Client
}

// LoadBalancer pairs a load balancer with its tags
type LoadBalancer struct {
	LoadBalancer types.LoadBalancer
	Tags         []types.Tag
}

type ELBService interface {
	ListLoadBalancers(ctx context.Context) ([]LoadBalancer, error)
}
