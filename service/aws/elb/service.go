package awselb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	elb "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	awsconfig "github.com/elC0mpa/cloud-steward/service/aws/config"
	"github.com/samber/lo"
)

func NewService(awsconfig aws.Config) *service {
	client := elb.NewFromConfig(awsconfig)
	return &service{
		client: client,
	}
}

// ListLoadBalancers returns every v2 load balancer with its tags attached
func (s *service) ListLoadBalancers(ctx context.Context) ([]LoadBalancer, error) {
	var lbs []types.LoadBalancer
	paginator := elb.NewDescribeLoadBalancersPaginator(s.client, &elb.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconfig.ClassifyError("DescribeLoadBalancers", err)
		}
		lbs = append(lbs, page.LoadBalancers...)
	}

	tags, err := s.describeTags(ctx, lbs)
	if err != nil {
		return nil, err
	}

	result := make([]LoadBalancer, 0, len(lbs))
	for _, lb := range lbs {
		result = append(result, LoadBalancer{
			LoadBalancer: lb,
			Tags:         tags[aws.ToString(lb.LoadBalancerArn)],
		})
	}

	return result, nil
}

func (s *service) describeTags(ctx context.Context, lbs []types.LoadBalancer) (map[string][]types.Tag, error) {
	arns := lo.FilterMap(lbs, func(lb types.LoadBalancer, _ int) (string, bool) {
		return aws.ToString(lb.LoadBalancerArn), lb.LoadBalancerArn != nil
	})

	tags := make(map[string][]types.Tag, len(arns))
	for _, batch := range lo.Chunk(arns, describeTagsBatch) {
		output, err := s.client.DescribeTags(ctx, &elb.DescribeTagsInput{ResourceArns: batch})
		if err != nil {
			return nil, awsconfig.ClassifyError("DescribeTags", err)
		}
		for _, desc := range output.TagDescriptions {
			tags[aws.ToString(desc.ResourceArn)] = desc.Tags
		}
	}

	return tags, nil
}
