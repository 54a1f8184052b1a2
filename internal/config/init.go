package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# releasebot configuration
manifest:
  url: https://factorio.com/download/sha256sums/
  product: Factorio
  fingerprint: raw        # raw | sha256
  timeout: 30s

telegram:
  token: ${TELEGRAM_TOKEN}
  chat_id: ${CHAT_ID}
  # proxy_url: socks5://127.0.0.1:1080
  timeout: 15s

announcement:
  language: ru            # ru | en
  release_url: https://factorio.com/download
  product_name: Факторио
  parse_mode: MarkdownV2  # MarkdownV2 | HTML
  silent: true
  unpin_policy: every_run # every_run | on_change

state:
  backend: file           # file | sqlite | nats | memory
  dir: .

schedule:
  interval: 10m
  # cron: "*/10 * * * *"

metrics:
  # pushgateway_url: http://127.0.0.1:9091
  # listen_addr: :9464
  job: releasebot

logging:
  level: info
  format: text
`

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
