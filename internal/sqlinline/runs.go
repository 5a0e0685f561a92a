package sqlinline

// Every statement starts with a "--sql <uuid>" marker line so the runner can
// log it and operators can grep for it.

const QRunsEnsureSchema = `--sql 6d1f0c2a-8b3e-4f71-9a52-0e7c4d9b1a34
create table if not exists content_runs (
    id text primary key,
    subject text not null,
    status text not null,
    summary_json jsonb,
    error_message text,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QRunsInsert = `--sql 2b9e7f41-5c0d-4a86-b3f2-71d8e6a0c953
insert into content_runs (id, subject, status, summary_json, error_message, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $6);
`

const QRunsUpdateStatus = `--sql 9a4c2e18-d7b5-4f03-8e6a-3c1f5b7d2e90
update content_runs
set status = $2,
    updated_at = now(),
    error_message = coalesce($3, error_message),
    summary_json = coalesce($4, summary_json)
where id = $1;
`

const QRunsGetByID = `--sql e5f8a3b7-1c2d-4e6f-9a0b-8d7c6e5f4a32
select id, subject, status, summary_json, coalesce(error_message, ''), created_at, updated_at
from content_runs
where id = $1;
`
