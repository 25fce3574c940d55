package drive

import "fmt"

// UpsertSettings replaces or inserts each key/value pair. Values are
// stored as strings; last write wins.
func (s *Service) UpsertSettings(values map[string]string) error {
	for key, value := range values {
		if err := s.db.UpsertSetting(key, value); err != nil {
			return fmt.Errorf("upserting setting %q: %w", key, err)
		}
	}

	s.recordActivity("update_settings", fmt.Sprintf("%d key(s)", len(values)))
	return nil
}

// GetSettings returns all settings.
func (s *Service) GetSettings() (map[string]string, error) {
	return s.db.GetSettings()
}

// EraseAll wipes the managed root and every folder, file and log record,
// then re-establishes the root folder. Irreversible and not transactional
// against a crash mid-walk. Settings survive. The single activity entry
// written afterwards is the only log line left.
func (s *Service) EraseAll() error {
	if err := s.store.EraseAll(); err != nil {
		s.logger.Warn("erasing managed root", "error", err)
	}

	if err := s.db.EraseAll(); err != nil {
		return fmt.Errorf("erasing records: %w", err)
	}

	if _, err := s.EnsureRootFolder(); err != nil {
		return fmt.Errorf("re-creating root folder: %w", err)
	}

	s.recordActivity("gdpr_erase", "")
	s.logger.Info("global erase complete")
	return nil
}
