package cmd

import (
	_ "handover-launcher/cmd/conf"
	_ "handover-launcher/cmd/root"
	_ "handover-launcher/cmd/run"
	_ "handover-launcher/cmd/serve"
	_ "handover-launcher/cmd/service"
	_ "handover-launcher/cmd/system"
	_ "handover-launcher/cmd/ui"
)
