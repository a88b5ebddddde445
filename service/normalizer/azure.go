package normalizer

import (
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/pricing"
)

func (s *normalizerService) azureVM(rec model.AzureVM) (model.Resource, error) {
	vm := rec.VM
	if vm == nil || vm.ID == nil || *vm.ID == "" {
		return model.Resource{}, malformed(model.SubtypeAzureVM, "missing vm id")
	}

	id := *vm.ID
	tags := foldAzureTags(vm.Tags)

	var size, platform string
	status := "unknown"
	if props := vm.Properties; props != nil {
		if props.HardwareProfile != nil && props.HardwareProfile.VMSize != nil {
			size = string(*props.HardwareProfile.VMSize)
		}
		if props.StorageProfile != nil && props.StorageProfile.OSDisk != nil && props.StorageProfile.OSDisk.OSType != nil {
			platform = string(*props.StorageProfile.OSDisk.OSType)
		}
		if ps := powerState(props.InstanceView); ps != "" {
			status = ps
		}
	}

	return model.Resource{
		ID:     id,
		Name:   resolveName(tags, deref(vm.Name), id),
		Type:   model.ResourceCompute,
		Region: deref(vm.Location),
		Status: status,
		Details: model.Details{
			model.DetailSize:          size,
			model.DetailPlatform:      platform,
			model.DetailResourceGroup: resourceGroup(id),
		},
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindCompute, size, 0),
	}, nil
}

// powerState returns the display status of the PowerState/* entry, e.g. "VM running"
func powerState(view *armcompute.VirtualMachineInstanceView) string {
	if view == nil {
		return ""
	}
	for _, st := range view.Statuses {
		if st == nil || st.Code == nil || !strings.HasPrefix(*st.Code, "PowerState/") {
			continue
		}
		if st.DisplayStatus != nil {
			return *st.DisplayStatus
		}
		return "VM " + strings.TrimPrefix(*st.Code, "PowerState/")
	}
	return ""
}

func (s *normalizerService) azureDisk(rec model.AzureDisk) (model.Resource, error) {
	disk := rec.Disk
	if disk == nil || disk.ID == nil || *disk.ID == "" {
		return model.Resource{}, malformed(model.SubtypeManagedDisk, "missing disk id")
	}

	id := *disk.ID
	tags := foldAzureTags(disk.Tags)

	var volumeType, status string
	var sizeGB int
	if disk.SKU != nil && disk.SKU.Name != nil {
		volumeType = string(*disk.SKU.Name)
	}
	if props := disk.Properties; props != nil {
		if props.DiskSizeGB != nil {
			sizeGB = int(*props.DiskSizeGB)
		}
		if props.DiskState != nil {
			status = string(*props.DiskState)
		}
	}

	attachments := 0
	if disk.ManagedBy != nil && *disk.ManagedBy != "" {
		attachments = 1
	}

	return model.Resource{
		ID:     id,
		Name:   resolveName(tags, deref(disk.Name), id),
		Type:   model.ResourceStorage,
		Region: deref(disk.Location),
		Status: status,
		Details: model.Details{
			model.DetailSize:            volumeType,
			model.DetailVolumeType:      volumeType,
			model.DetailSizeGB:          sizeGB,
			model.DetailAttachments:     attachments,
			model.DetailAttachmentState: attachmentState(attachments),
			model.DetailResourceGroup:   resourceGroup(id),
		},
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindStorage, volumeType, float64(sizeGB)),
	}, nil
}

func (s *normalizerService) azurePublicIP(rec model.AzurePublicIP) (model.Resource, error) {
	ip := rec.Address
	if ip == nil || ip.ID == nil || *ip.ID == "" {
		return model.Resource{}, malformed(model.SubtypeAzurePublicIP, "missing public ip id")
	}

	id := *ip.ID
	tags := foldAzureTags(ip.Tags)

	var sku, address string
	if ip.SKU != nil && ip.SKU.Name != nil {
		sku = string(*ip.SKU.Name)
	}

	status := "unassociated"
	attachments := 0
	if props := ip.Properties; props != nil {
		address = deref(props.IPAddress)
		if props.IPConfiguration != nil {
			status = "associated"
			attachments = 1
		}
	}

	return model.Resource{
		ID:     id,
		Name:   resolveName(tags, deref(ip.Name), id),
		Type:   model.ResourceNetwork,
		Region: deref(ip.Location),
		Status: status,
		Details: model.Details{
			model.DetailSize:            sku,
			model.DetailPublicIP:        address,
			model.DetailAttachments:     attachments,
			model.DetailAttachmentState: attachmentState(attachments),
			model.DetailResourceGroup:   resourceGroup(id),
		},
		Tags:        tags,
		CostMonthly: s.estimate(pricing.KindPublicIP, sku, 0),
	}, nil
}

func foldAzureTags(tags map[string]*string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = deref(v)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
