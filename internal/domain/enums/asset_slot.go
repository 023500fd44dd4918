package enums

type AssetSlot string

const (
	AssetSlotLogo         AssetSlot = "logo"
	AssetSlotBanner       AssetSlot = "banner"
	AssetSlotImage        AssetSlot = "image"
	AssetSlotImageTablet  AssetSlot = "image_tablet"
	AssetSlotImageDesktop AssetSlot = "image_desktop"
	AssetSlotVideo        AssetSlot = "video"
)

// AssetSlots returns the fixed slot set in upload order.
func AssetSlots() []AssetSlot {
	return []AssetSlot{
		AssetSlotLogo,
		AssetSlotBanner,
		AssetSlotImage,
		AssetSlotImageTablet,
		AssetSlotImageDesktop,
		AssetSlotVideo,
	}
}

func (s AssetSlot) Valid() bool {
	switch s {
	case AssetSlotLogo, AssetSlotBanner, AssetSlotImage, AssetSlotImageTablet, AssetSlotImageDesktop, AssetSlotVideo:
		return true
	}
	return false
}
