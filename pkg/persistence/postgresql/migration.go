package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE journeys (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'active', 'paused', 'archived')),
				steps JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_journeys_status ON journeys(status);
			CREATE INDEX idx_journeys_deleted_at ON journeys(deleted_at);

			CREATE TABLE executions (
				id VARCHAR(255) PRIMARY KEY,
				journey_id VARCHAR(255) NOT NULL,
				contact_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'paused', 'completed', 'failed')),
				current_step_id VARCHAR(255),
				next_wake_at TIMESTAMP WITH TIME ZONE,
				execution_data JSONB NOT NULL DEFAULT '[]',
				steps JSONB,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				failure_reason TEXT NOT NULL DEFAULT '',
				lease_owner VARCHAR(255),
				lease_expires_at TIMESTAMP WITH TIME ZONE,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_executions_journey_id ON executions(journey_id);
			CREATE INDEX idx_executions_due ON executions(next_wake_at) WHERE status = 'running';

			-- One active execution per journey and contact.
			CREATE UNIQUE INDEX idx_executions_active_contact
				ON executions(journey_id, contact_id)
				WHERE status IN ('running', 'paused');
		`,
	}
}
