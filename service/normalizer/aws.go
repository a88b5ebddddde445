package normalizer

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/pricing"
)

func (s *normalizerService) awsInstance(rec model.AWSInstance) (model.Resource, error) {
	inst := rec.Instance
	id := aws.ToString(inst.InstanceId)
	if id == "" {
		return model.Resource{}, malformed(model.SubtypeEC2Instance, "missing instance id")
	}

	tags := foldEC2Tags(inst.Tags)
	size := string(inst.InstanceType)

	var zone, status string
	if inst.Placement != nil {
		zone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	if inst.State != nil {
		status = string(inst.State.Name)
	}

	details := model.Details{
		model.DetailSize:             size,
		model.DetailAvailabilityZone: zone,
		model.DetailPrivateIP:        aws.ToString(inst.PrivateIpAddress),
		model.DetailPublicIP:         aws.ToString(inst.PublicIpAddress),
		model.DetailPlatform:         aws.ToString(inst.PlatformDetails),
	}
	if inst.LaunchTime != nil {
		details[model.DetailLaunchedAt] = inst.LaunchTime.UTC().Format(time.RFC3339)
	}

	return model.Resource{
		ID:          id,
		Name:        resolveName(tags, "", id),
		Type:        model.ResourceCompute,
		Region:      regionFromZone(model.ProviderAWS, zone),
		Status:      status,
		Details:     details,
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindCompute, size, 0),
	}, nil
}

func (s *normalizerService) awsVolume(rec model.AWSVolume) (model.Resource, error) {
	vol := rec.Volume
	id := aws.ToString(vol.VolumeId)
	if id == "" {
		return model.Resource{}, malformed(model.SubtypeEBSVolume, "missing volume id")
	}

	tags := foldEC2Tags(vol.Tags)
	volumeType := string(vol.VolumeType)
	sizeGB := int(aws.ToInt32(vol.Size))
	zone := aws.ToString(vol.AvailabilityZone)

	return model.Resource{
		ID:     id,
		Name:   resolveName(tags, "", id),
		Type:   model.ResourceStorage,
		Region: regionFromZone(model.ProviderAWS, zone),
		Status: string(vol.State),
		Details: model.Details{
			model.DetailSize:             volumeType,
			model.DetailVolumeType:       volumeType,
			model.DetailSizeGB:           sizeGB,
			model.DetailAttachments:      len(vol.Attachments),
			model.DetailAttachmentState:  attachmentState(len(vol.Attachments)),
			model.DetailAvailabilityZone: zone,
		},
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindStorage, volumeType, float64(sizeGB)),
	}, nil
}

func (s *normalizerService) awsAddress(rec model.AWSAddress) (model.Resource, error) {
	addr := rec.Address
	id := aws.ToString(addr.AllocationId)
	if id == "" {
		id = aws.ToString(addr.PublicIp)
	}
	if id == "" {
		return model.Resource{}, malformed(model.SubtypeElasticIP, "missing allocation id")
	}

	tags := foldEC2Tags(addr.Tags)
	status := "unassociated"
	attachments := 0
	if addr.AssociationId != nil {
		status = "associated"
		attachments = 1
	}

	return model.Resource{
		ID:     id,
		Name:   resolveName(tags, aws.ToString(addr.PublicIp), id),
		Type:   model.ResourceNetwork,
		Region: aws.ToString(addr.NetworkBorderGroup),
		Status: status,
		Details: model.Details{
			model.DetailPublicIP:        aws.ToString(addr.PublicIp),
			model.DetailPrivateIP:       aws.ToString(addr.PrivateIpAddress),
			model.DetailAttachments:     attachments,
			model.DetailAttachmentState: attachmentState(attachments),
		},
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindPublicIP, "", 0),
	}, nil
}

func (s *normalizerService) awsLoadBalancer(rec model.AWSLoadBalancer) (model.Resource, error) {
	lb := rec.LoadBalancer
	id := aws.ToString(lb.LoadBalancerArn)
	if id == "" {
		return model.Resource{}, malformed(model.SubtypeLoadBalancer, "missing load balancer arn")
	}

	tags := foldELBTags(rec.Tags)
	lbType := string(lb.Type)

	var status, zone string
	if lb.State != nil {
		status = string(lb.State.Code)
	}
	if len(lb.AvailabilityZones) > 0 {
		zone = aws.ToString(lb.AvailabilityZones[0].ZoneName)
	}

	return model.Resource{
		ID:     id,
		Name:   resolveName(tags, aws.ToString(lb.LoadBalancerName), id),
		Type:   model.ResourceNetwork,
		Region: regionFromZone(model.ProviderAWS, zone),
		Status: status,
		Details: model.Details{
			model.DetailSize:             lbType,
			model.DetailScheme:           string(lb.Scheme),
			model.DetailAvailabilityZone: zone,
		},
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindLoadBalancer, lbType, 0),
	}, nil
}

func (s *normalizerService) awsDBInstance(rec model.AWSDBInstance) (model.Resource, error) {
	db := rec.DBInstance
	id := aws.ToString(db.DBInstanceIdentifier)
	if id == "" {
		return model.Resource{}, malformed(model.SubtypeRDSInstance, "missing db instance identifier")
	}

	tags := foldRDSTags(db.TagList)
	size := aws.ToString(db.DBInstanceClass)
	zone := aws.ToString(db.AvailabilityZone)

	return model.Resource{
		ID:     id,
		Name:   resolveName(tags, "", id),
		Type:   model.ResourceDatabase,
		Region: regionFromZone(model.ProviderAWS, zone),
		Status: aws.ToString(db.DBInstanceStatus),
		Details: model.Details{
			model.DetailSize:             size,
			model.DetailEngine:           aws.ToString(db.Engine),
			model.DetailSizeGB:           int(aws.ToInt32(db.AllocatedStorage)),
			model.DetailAvailabilityZone: zone,
		},
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindDatabase, size, 0),
	}, nil
}

func foldEC2Tags(tags []ec2types.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key == nil {
			continue
		}
		out[*t.Key] = aws.ToString(t.Value)
	}
	return out
}

func foldELBTags(tags []elbtypes.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key == nil {
			continue
		}
		out[*t.Key] = aws.ToString(t.Value)
	}
	return out
}

func foldRDSTags(tags []rdstypes.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key == nil {
			continue
		}
		out[*t.Key] = aws.ToString(t.Value)
	}
	return out
}
