package normalizer

import (
	"strconv"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/pricing"
)

func (s *normalizerService) gcpInstance(rec model.GCPInstance) (model.Resource, error) {
	inst := rec.Instance
	if inst == nil {
		return model.Resource{}, malformed(model.SubtypeGCEInstance, "nil instance")
	}
	id := gcpID(inst.Id, inst.Name)
	if id == "" {
		return model.Resource{}, malformed(model.SubtypeGCEInstance, "missing instance id")
	}

	tags := foldLabels(inst.Labels)
	zone := lastSegment(inst.Zone)
	size := lastSegment(inst.MachineType)

	details := model.Details{
		model.DetailSize:             size,
		model.DetailAvailabilityZone: zone,
		model.DetailLaunchedAt:       inst.CreationTimestamp,
	}
	if len(inst.NetworkInterfaces) > 0 && inst.NetworkInterfaces[0] != nil {
		nic := inst.NetworkInterfaces[0]
		details[model.DetailPrivateIP] = nic.NetworkIP
		if len(nic.AccessConfigs) > 0 && nic.AccessConfigs[0] != nil {
			details[model.DetailPublicIP] = nic.AccessConfigs[0].NatIP
		}
	}

	return model.Resource{
		ID:          id,
		Name:        resolveName(tags, inst.Name, id),
		Type:        model.ResourceCompute,
		Region:      regionFromZone(model.ProviderGCP, zone),
		Status:      inst.Status,
		Details:     details,
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindCompute, size, 0),
	}, nil
}

func (s *normalizerService) gcpDisk(rec model.GCPDisk) (model.Resource, error) {
	disk := rec.Disk
	if disk == nil {
		return model.Resource{}, malformed(model.SubtypePersistentDisk, "nil disk")
	}
	id := gcpID(disk.Id, disk.Name)
	if id == "" {
		return model.Resource{}, malformed(model.SubtypePersistentDisk, "missing disk id")
	}

	tags := foldLabels(disk.Labels)
	zone := lastSegment(disk.Zone)
	volumeType := lastSegment(disk.Type)
	attachments := len(disk.Users)

	region := regionFromZone(model.ProviderGCP, zone)
	if region == "" {
		region = lastSegment(disk.Region)
	}

	return model.Resource{
		ID:     id,
		Name:   resolveName(tags, disk.Name, id),
		Type:   model.ResourceStorage,
		Region: region,
		Status: disk.Status,
		Details: model.Details{
			model.DetailSize:             volumeType,
			model.DetailVolumeType:       volumeType,
			model.DetailSizeGB:           int(disk.SizeGb),
			model.DetailAttachments:      attachments,
			model.DetailAttachmentState:  attachmentState(attachments),
			model.DetailAvailabilityZone: zone,
		},
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindStorage, volumeType, float64(disk.SizeGb)),
	}, nil
}

func (s *normalizerService) gcpAddress(rec model.GCPAddress) (model.Resource, error) {
	addr := rec.Address
	if addr == nil {
		return model.Resource{}, malformed(model.SubtypeExternalAddress, "nil address")
	}
	id := gcpID(addr.Id, addr.Name)
	if id == "" {
		return model.Resource{}, malformed(model.SubtypeExternalAddress, "missing address id")
	}

	tags := foldLabels(addr.Labels)
	attachments := len(addr.Users)

	return model.Resource{
		ID:     id,
		Name:   resolveName(tags, addr.Name, id),
		Type:   model.ResourceNetwork,
		Region: lastSegment(addr.Region),
		Status: addr.Status,
		Details: model.Details{
			model.DetailSize:            addr.NetworkTier,
			model.DetailPublicIP:        addr.Address,
			model.DetailAttachments:     attachments,
			model.DetailAttachmentState: attachmentState(attachments),
		},
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindPublicIP, "", 0),
	}, nil
}

// gcpID prefers the numeric resource id and falls back to the resource name
func gcpID(id uint64, name string) string {
	if id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return name
}

func foldLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
